// Package nibble holds the 4-bit building blocks of the cipher: the cell
// type, the 4x4 state, and the fixed substitution, permutation, diffusion
// and round-constant tables.
package nibble

import (
	"errors"
	"fmt"
)

const (
	// StateSize is the number of cells in a state (a 64-bit block).
	StateSize = 16
	// HalfSize is the number of cells in the top two rows of the grid.
	HalfSize = 8
	// MaxRounds is the number of entries in the round-constant table.
	MaxRounds = 62

	mask = 0xf
)

var (
	ErrCellRange       = errors.New("nibble: value out of range [0,15]")
	ErrRoundOutOfRange = errors.New("nibble: round index exceeds round-constant table")
)

// Cell is a single nibble. Values are always kept in [0,15].
type Cell uint8

// NewCell returns v as a Cell, rejecting values that do not fit in 4 bits.
func NewCell(v int) (Cell, error) {
	if v < 0 || v > mask {
		return 0, fmt.Errorf("%w: %d", ErrCellRange, v)
	}
	return Cell(v), nil
}

// Mask keeps the low 4 bits of v.
func Mask(v uint64) Cell {
	return Cell(v & mask)
}

// State is a 4x4 grid of cells in row-major order. Column j holds cells
// j, j+4, j+8 and j+12.
type State [StateSize]Cell

// Masked returns a copy of s with every cell reduced to 4 bits.
func (s State) Masked() State {
	for i := range s {
		s[i] &= mask
	}
	return s
}

var sbox = [16]Cell{0xc, 0x6, 0x9, 0x0, 0x1, 0xa, 0x2, 0xb, 0x3, 0x8, 0x5, 0xd, 0x4, 0xe, 0x7, 0xf}

var sboxInv = [16]Cell{0x3, 0x4, 0x6, 0x8, 0xc, 0xa, 0x1, 0xe, 0x9, 0x2, 0x5, 0x7, 0x0, 0xb, 0xd, 0xf}

// Cell permutation applied to the state every round: out[i] = in[cellPerm[i]].
var cellPerm = [StateSize]int{0, 1, 2, 3, 7, 4, 5, 6, 10, 11, 8, 9, 13, 14, 15, 12}

var cellPermInv = [StateSize]int{0, 1, 2, 3, 5, 6, 7, 4, 10, 11, 8, 9, 15, 12, 13, 14}

var roundConstants = [MaxRounds]uint8{
	0x01, 0x03, 0x07, 0x0F, 0x1F, 0x3E, 0x3D, 0x3B, 0x37, 0x2F,
	0x1E, 0x3C, 0x39, 0x33, 0x27, 0x0E, 0x1D, 0x3A, 0x35, 0x2B,
	0x16, 0x2C, 0x18, 0x30, 0x21, 0x02, 0x05, 0x0B, 0x17, 0x2E,
	0x1C, 0x38, 0x31, 0x23, 0x06, 0x0D, 0x1B, 0x36, 0x2D, 0x1A,
	0x34, 0x29, 0x12, 0x24, 0x08, 0x11, 0x22, 0x04, 0x09, 0x13,
	0x26, 0x0C, 0x19, 0x32, 0x25, 0x0A, 0x15, 0x2A, 0x14, 0x28,
	0x10, 0x20,
}

// Substitute applies the 4-bit S-box.
func Substitute(x Cell) Cell {
	return sbox[x&mask]
}

// Unsubstitute applies the inverse S-box.
func Unsubstitute(x Cell) Cell {
	return sboxInv[x&mask]
}

// SubCells substitutes every cell of s.
func SubCells(s State) State {
	for i := range s {
		s[i] = Substitute(s[i])
	}
	return s
}

// InvSubCells undoes SubCells.
func InvSubCells(s State) State {
	for i := range s {
		s[i] = Unsubstitute(s[i])
	}
	return s
}

// Permute returns the state whose cell i is s[p[i]].
func Permute(s State, p *[StateSize]int) State {
	var out State
	for i := range out {
		out[i] = s[p[i]]
	}
	return out
}

// PermuteCells applies the fixed round permutation.
func PermuteCells(s State) State {
	return Permute(s, &cellPerm)
}

// UnpermuteCells applies the inverse round permutation.
func UnpermuteCells(s State) State {
	return Permute(s, &cellPermInv)
}

// Diffuse mixes each column in place: three XOR steps followed by a
// rotation of the column by one row.
func Diffuse(s State) State {
	for j := 0; j < 4; j++ {
		s[j+4] ^= s[j+8]
		s[j+8] ^= s[j]
		s[j+12] ^= s[j+8]
		s[j], s[j+4], s[j+8], s[j+12] = s[j+12], s[j], s[j+4], s[j+8]
	}
	return s
}

// Undiffuse is the inverse of Diffuse.
func Undiffuse(s State) State {
	for j := 0; j < 4; j++ {
		s[j], s[j+4], s[j+8], s[j+12] = s[j+4], s[j+8], s[j+12], s[j]
		s[j+12] ^= s[j+8]
		s[j+8] ^= s[j]
		s[j+4] ^= s[j+8]
	}
	return s
}

// RoundConstant returns the 6-bit constant for round r.
func RoundConstant(r int) (uint8, error) {
	if r < 0 || r >= MaxRounds {
		return 0, fmt.Errorf("%w: round %d, table holds %d", ErrRoundOutOfRange, r, MaxRounds)
	}
	return roundConstants[r], nil
}

// ConstantCells splits a round constant into the three cells it touches:
// cell 0 gets the low nibble, cell 4 the next two bits, cell 8 the fixed 0x2.
func ConstantCells(rc uint8) (c0, c4, c8 Cell) {
	return Cell(rc & 0xf), Cell((rc >> 4) & 0x3), 0x2
}

// AddConstants XORs the round constant for round r into s. The caller is
// responsible for r being in range; use RoundConstant to check.
func AddConstants(s State, r int) State {
	c0, c4, c8 := ConstantCells(roundConstants[r])
	s[0] ^= c0
	s[4] ^= c4
	s[8] ^= c8
	return s
}
