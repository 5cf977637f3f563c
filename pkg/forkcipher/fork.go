package forkcipher

import (
	"errors"
	"fmt"

	"forkskinny-go/pkg/nibble"
)

var ErrInvalidFork = errors.New("forkcipher: invalid fork parameters")

// MaxSkip bounds Skip so that the schedule, Rounds+Skip round tweakeys
// expanded once per tweakey assignment, stays small.
const MaxSkip = 1 << 10

// Fork describes which branch of the forked cipher is simulated.
//
// Rounds is the length of the simulated path, ForkPoint the round at which
// the real cipher splits, and Skip the number of round tweakeys consumed by
// the other branch that are stepped over after the fork.
type Fork struct {
	Rounds    int `mapstructure:"rounds" json:"rounds"`
	ForkPoint int `mapstructure:"fork_point" json:"fork_point"`
	Skip      int `mapstructure:"skip" json:"skip"`
}

// Validate checks the fork against the round-constant table.
func (f Fork) Validate() error {
	if f.Rounds < 0 || f.Rounds > nibble.MaxRounds {
		return fmt.Errorf("%w: rounds %d outside [0,%d]", ErrInvalidFork, f.Rounds, nibble.MaxRounds)
	}
	if f.ForkPoint < 0 || f.ForkPoint > f.Rounds {
		return fmt.Errorf("%w: fork point %d outside [0,%d]", ErrInvalidFork, f.ForkPoint, f.Rounds)
	}
	if f.Skip < 0 || f.Skip > MaxSkip {
		return fmt.Errorf("%w: skip %d outside [0,%d]", ErrInvalidFork, f.Skip, MaxSkip)
	}
	return nil
}

// ScheduleLength is the number of round tweakeys the schedule must produce
// so indices on both sides of the fork stay valid.
func (f Fork) ScheduleLength() int {
	return f.Rounds + f.Skip
}

// Cursor returns the tweakey-stream cursor for f.
func (f Fork) Cursor() Cursor {
	return Cursor{forkPoint: f.ForkPoint, skip: f.Skip}
}

func (f Fork) String() string {
	return fmt.Sprintf("R=%d Ri=%d R0=%d", f.Rounds, f.ForkPoint, f.Skip)
}

// Cursor maps a round of the simulated branch to its slot in the
// round-tweakey stream.
type Cursor struct {
	forkPoint int
	skip      int
}

// PreFork is the slot of round r inside the shared prefix.
func (c Cursor) PreFork(r int) int { return r }

// PostFork is the slot of round r after the other branch's slots.
func (c Cursor) PostFork(r int) int { return r + c.skip }

// Shared reports whether round r is still before the fork.
func (c Cursor) Shared(r int) bool { return r < c.forkPoint }

// Index picks PreFork or PostFork for round r.
func (c Cursor) Index(r int) int {
	if c.Shared(r) {
		return c.PreFork(r)
	}
	return c.PostFork(r)
}
