package integral

import (
	"errors"
	"fmt"
	"slices"

	"forkskinny-go/pkg/forkcipher"
	"forkskinny-go/pkg/nibble"
	"forkskinny-go/pkg/tweakey"
)

// MaxActiveBits bounds the combined width of both counters so that the
// number of encryptions fits a uint64.
const MaxActiveBits = 62

var ErrInvalidParams = errors.New("integral: invalid distinguisher parameters")

// ActiveTweakey selects cell Index in the first Words tweakey words.
// Words sets the active tweakey width, 4*Words bits: bits 4w..4w+3 of the
// outer counter go to word w.
type ActiveTweakey struct {
	Index int `json:"index"`
	Words int `json:"words"`
}

// Params is one distinguisher configuration.
type Params struct {
	Fork            forkcipher.Fork `json:"fork"`
	ActivePlaintext []int           `json:"active_plaintext"`
	ActiveTweakey   ActiveTweakey   `json:"active_tweakey"`
	Targets         []int           `json:"targets"`
}

func checkPositions(name string, pos []int) error {
	seen := make(map[int]bool, len(pos))
	for _, p := range pos {
		if p < 0 || p >= nibble.StateSize {
			return fmt.Errorf("%w: %s position %d outside [0,%d]", ErrInvalidParams, name, p, nibble.StateSize-1)
		}
		if seen[p] {
			return fmt.Errorf("%w: %s position %d listed twice", ErrInvalidParams, name, p)
		}
		seen[p] = true
	}
	return nil
}

// Validate rejects parameters that would index outside the state, the
// tweakey words or the round-constant table.
func (p Params) Validate() error {
	if err := p.Fork.Validate(); err != nil {
		return err
	}
	if err := checkPositions("active plaintext", p.ActivePlaintext); err != nil {
		return err
	}
	if err := checkPositions("target", p.Targets); err != nil {
		return err
	}
	if len(p.Targets) == 0 {
		return fmt.Errorf("%w: no target positions", ErrInvalidParams)
	}
	if p.ActiveTweakey.Index < 0 || p.ActiveTweakey.Index >= nibble.StateSize {
		return fmt.Errorf("%w: active tweakey index %d outside [0,%d]", ErrInvalidParams, p.ActiveTweakey.Index, nibble.StateSize-1)
	}
	if p.ActiveTweakey.Words < 0 || p.ActiveTweakey.Words > tweakey.Words {
		return fmt.Errorf("%w: active tweakey words %d outside [0,%d]", ErrInvalidParams, p.ActiveTweakey.Words, tweakey.Words)
	}
	if bits := p.ActiveBits(); bits > MaxActiveBits {
		return fmt.Errorf("%w: %d active bits, at most %d supported", ErrInvalidParams, bits, MaxActiveBits)
	}
	if len(p.ControlCandidates()) == 0 {
		return fmt.Errorf("%w: every cell is active or a target, no control position left", ErrInvalidParams)
	}
	return nil
}

// PlaintextBits is the width of the inner counter.
func (p Params) PlaintextBits() int { return 4 * len(p.ActivePlaintext) }

// TweakeyBits is the width of the outer counter.
func (p Params) TweakeyBits() int { return 4 * p.ActiveTweakey.Words }

// ActiveBits is the total width of the search.
func (p Params) ActiveBits() int { return p.PlaintextBits() + p.TweakeyBits() }

// PlaintextAssignments is the number of inner counter values.
func (p Params) PlaintextAssignments() uint64 { return 1 << p.PlaintextBits() }

// TweakeyAssignments is the number of outer counter values.
func (p Params) TweakeyAssignments() uint64 { return 1 << p.TweakeyBits() }

// Encryptions is the total size of the sweep.
func (p Params) Encryptions() uint64 { return 1 << p.ActiveBits() }

// ControlCandidates lists the cells that are neither active plaintext
// cells nor targets, in ascending order.
func (p Params) ControlCandidates() []int {
	var out []int
	for i := 0; i < nibble.StateSize; i++ {
		if !slices.Contains(p.ActivePlaintext, i) && !slices.Contains(p.Targets, i) {
			out = append(out, i)
		}
	}
	return out
}

// applyTweakey writes the outer counter value tc into the active cells.
func (p Params) applyTweakey(tk tweakey.Tweakey, tc uint64) tweakey.Tweakey {
	for w := 0; w < p.ActiveTweakey.Words; w++ {
		tk = tk.WithCell(w, p.ActiveTweakey.Index, nibble.Mask(tc>>(4*w)))
	}
	return tk
}

// applyPlaintext writes the inner counter value pc into the active cells.
func (p Params) applyPlaintext(pt nibble.State, pc uint64) nibble.State {
	for n, pos := range p.ActivePlaintext {
		pt[pos] = nibble.Mask(pc >> (4 * n))
	}
	return pt
}
