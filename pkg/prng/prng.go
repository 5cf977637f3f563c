// Package prng provides the explicitly seeded generator passed to every
// piece of code that needs randomness. There is no package-level state.
package prng

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"

	"forkskinny-go/pkg/nibble"
	"forkskinny-go/pkg/tweakey"
)

// SeedSize is the length of a generator seed in bytes.
const SeedSize = 32

var ErrEntropy = errors.New("prng: cannot obtain system entropy")

// Seed is the full input to a Source. Equal seeds give equal streams.
type Seed [SeedSize]byte

func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}

// ParseSeed decodes a 64-digit hex seed.
func ParseSeed(str string) (Seed, error) {
	var s Seed
	b, err := hex.DecodeString(str)
	if err != nil {
		return s, fmt.Errorf("prng: seed is not hex: %w", err)
	}
	if len(b) != SeedSize {
		return s, fmt.Errorf("prng: seed has %d bytes, want %d", len(b), SeedSize)
	}
	copy(s[:], b)
	return s, nil
}

// SeedFromOS reads a fresh seed from the operating system.
func SeedFromOS() (Seed, error) {
	var s Seed
	if err := readEntropy(s[:]); err != nil {
		return s, fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	return s, nil
}

// Source is a deterministic generator. Not safe for concurrent use.
type Source struct {
	seed Seed
	r    *rand.Rand
}

// New returns a ChaCha8-backed source for seed.
func New(seed Seed) *Source {
	return &Source{seed: seed, r: rand.New(rand.NewChaCha8(seed))}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() Seed { return s.seed }

// IntN returns a value in [0,n).
func (s *Source) IntN(n int) int { return s.r.IntN(n) }

// Cell draws one nibble.
func (s *Source) Cell() nibble.Cell {
	return nibble.Mask(s.r.Uint64())
}

// State draws 16 nibbles, cell 0 first.
func (s *Source) State() nibble.State {
	var st nibble.State
	for i := range st {
		st[i] = s.Cell()
	}
	return st
}

// Tweakey draws TK1, TK2 and TK3 cell by cell, interleaving the words the
// way the cells are consumed: cell i of all three words before cell i+1.
func (s *Source) Tweakey() tweakey.Tweakey {
	var tk tweakey.Tweakey
	for i := 0; i < nibble.StateSize; i++ {
		for w := range tk {
			tk[w][i] = s.Cell()
		}
	}
	return tk
}

// Choice picks one element of from uniformly.
func (s *Source) Choice(from []int) int {
	return from[s.r.IntN(len(from))]
}
