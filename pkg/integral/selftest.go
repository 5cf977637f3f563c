package integral

import (
	"errors"

	"forkskinny-go/pkg/forkcipher"
	"forkskinny-go/pkg/nibble"
	"forkskinny-go/pkg/prng"
	"forkskinny-go/pkg/tweakey"
)

var ErrSelfTestFailed = errors.New("integral: encryption and decryption do not match")

// SelfTestReport is the outcome of one encrypt/decrypt round trip.
type SelfTestReport struct {
	Fork       forkcipher.Fork
	Tweakey    tweakey.Tweakey
	Plaintext  nibble.State
	Ciphertext nibble.State
	Decrypted  nibble.State
	Passed     bool
}

// SelfTest draws a random tweakey and plaintext from rng and checks that
// decryption inverts encryption under fork f.
func SelfTest(rng *prng.Source, f forkcipher.Fork) (*SelfTestReport, error) {
	tk := rng.Tweakey()
	pt := rng.State()
	c, err := forkcipher.New(tk, f)
	if err != nil {
		return nil, err
	}
	rep := &SelfTestReport{
		Fork:      f,
		Tweakey:   tk,
		Plaintext: pt,
	}
	rep.Ciphertext = c.Encrypt(pt)
	rep.Decrypted = c.Decrypt(rep.Ciphertext)
	rep.Passed = rep.Decrypted == rep.Plaintext
	return rep, nil
}
