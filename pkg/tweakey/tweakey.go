// Package tweakey implements the three-word tweakey schedule. TK1 is only
// permuted each round; the top halves of TK2 and TK3 additionally pass
// through their own 4-bit LFSR.
package tweakey

import (
	"fmt"

	"forkskinny-go/pkg/nibble"
)

// Words is the number of tweakey words.
const Words = 3

// Word is one 16-cell tweakey word.
type Word = nibble.State

// RoundTweakey is the 8-cell value XORed into the top half of the state.
type RoundTweakey [nibble.HalfSize]nibble.Cell

// Tweakey holds TK1, TK2 and TK3.
type Tweakey [Words]Word

// Masked returns a copy with every cell of every word reduced to 4 bits.
func (tk Tweakey) Masked() Tweakey {
	for w := range tk {
		tk[w] = tk[w].Masked()
	}
	return tk
}

// WithCell returns a copy of tk with cell idx of word w set to v.
func (tk Tweakey) WithCell(w, idx int, v nibble.Cell) Tweakey {
	tk[w][idx] = v & 0xf
	return tk
}

func (tk Tweakey) String() string {
	return fmt.Sprintf("%s %s %s", tk[0], tk[1], tk[2])
}

// Tweakey cell permutation: out[i] = in[perm[i]].
var perm = [nibble.StateSize]int{9, 15, 8, 13, 10, 14, 12, 11, 0, 1, 2, 3, 4, 5, 6, 7}

// LFSR2 shifts x left by one and feeds bit3 ^ bit2 into bit 0.
func LFSR2(x nibble.Cell) nibble.Cell {
	return ((x << 1) ^ ((x >> 3) & 1) ^ ((x >> 2) & 1)) & 0xf
}

// LFSR3 shifts x right by one and feeds bit0 ^ bit3 into bit 3.
func LFSR3(x nibble.Cell) nibble.Cell {
	return ((x >> 1) ^ (((x & 1) ^ ((x >> 3) & 1)) << 3)) & 0xf
}

// Next advances all three words by one round.
func (tk Tweakey) Next() Tweakey {
	for w := range tk {
		tk[w] = nibble.Permute(tk[w], &perm)
	}
	for i := 0; i < nibble.HalfSize; i++ {
		tk[1][i] = LFSR2(tk[1][i])
		tk[2][i] = LFSR3(tk[2][i])
	}
	return tk
}

// RoundKey folds the top halves of the three words together.
func (tk Tweakey) RoundKey() RoundTweakey {
	var rtk RoundTweakey
	for i := range rtk {
		rtk[i] = tk[0][i] ^ tk[1][i] ^ tk[2][i]
	}
	return rtk
}

// Schedule expands tk into n round tweakeys. It keeps no state between
// calls: equal inputs always give an equal stream.
func Schedule(tk Tweakey, n int) []RoundTweakey {
	if n <= 0 {
		return nil
	}
	out := make([]RoundTweakey, n)
	cur := tk.Masked()
	out[0] = cur.RoundKey()
	for r := 1; r < n; r++ {
		cur = cur.Next()
		out[r] = cur.RoundKey()
	}
	return out
}
