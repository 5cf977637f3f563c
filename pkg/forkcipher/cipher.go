// Package forkcipher composes the nibble round function with the tweakey
// schedule into one branch of the forked cipher.
package forkcipher

import (
	"forkskinny-go/pkg/nibble"
	"forkskinny-go/pkg/tweakey"
)

// Cipher holds the expanded round-tweakey stream for one tweakey and one
// fork configuration. It is immutable after New and safe for concurrent use.
type Cipher struct {
	fork   Fork
	cursor Cursor
	rtk    []tweakey.RoundTweakey
}

// New validates f and expands tk into R+R0 round tweakeys.
func New(tk tweakey.Tweakey, f Fork) (*Cipher, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &Cipher{
		fork:   f,
		cursor: f.Cursor(),
		rtk:    tweakey.Schedule(tk, f.ScheduleLength()),
	}, nil
}

// Fork returns the parameters the cipher was built with.
func (c *Cipher) Fork() Fork { return c.fork }

// RoundTweakey returns the round tweakey used in round r of the branch.
func (c *Cipher) RoundTweakey(r int) tweakey.RoundTweakey {
	return c.rtk[c.cursor.Index(r)]
}

func addTweakey(s nibble.State, rtk tweakey.RoundTweakey) nibble.State {
	for i := range rtk {
		s[i] ^= rtk[i]
	}
	return s
}

// EncryptRound applies round r to s.
func (c *Cipher) EncryptRound(s nibble.State, r int) nibble.State {
	s = nibble.SubCells(s)
	s = nibble.AddConstants(s, r)
	s = addTweakey(s, c.RoundTweakey(r))
	s = nibble.PermuteCells(s)
	return nibble.Diffuse(s)
}

// DecryptRound undoes round r.
func (c *Cipher) DecryptRound(s nibble.State, r int) nibble.State {
	s = nibble.Undiffuse(s)
	s = nibble.UnpermuteCells(s)
	s = addTweakey(s, c.RoundTweakey(r))
	s = nibble.AddConstants(s, r)
	return nibble.InvSubCells(s)
}

// Encrypt runs all rounds of the branch over pt.
func (c *Cipher) Encrypt(pt nibble.State) nibble.State {
	s := pt.Masked()
	for r := 0; r < c.fork.Rounds; r++ {
		s = c.EncryptRound(s, r)
	}
	return s
}

// Decrypt is the inverse of Encrypt.
func (c *Cipher) Decrypt(ct nibble.State) nibble.State {
	s := ct.Masked()
	for r := c.fork.Rounds - 1; r >= 0; r-- {
		s = c.DecryptRound(s, r)
	}
	return s
}
