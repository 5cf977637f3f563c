// Package integral checks a conjectured integral distinguisher against the
// forked cipher: a round-trip self-test followed by an exhaustive sweep
// over active tweakey and plaintext cells, accumulating XOR sums.
package integral

import (
	"context"
	"fmt"

	"forkskinny-go/pkg/log"
	"forkskinny-go/pkg/nibble"
	"forkskinny-go/pkg/prng"
	"forkskinny-go/pkg/tweakey"
)

// Phase is the harness state. SelfTest always precedes Search.
type Phase int

const (
	PhaseSelfTest Phase = iota
	PhaseSearch
)

func (p Phase) String() string {
	switch p {
	case PhaseSelfTest:
		return "self-test"
	case PhaseSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Fixed pins parts of the base material. Nil entries are drawn at random.
type Fixed struct {
	Plaintext *nibble.State
	Tweakey   [tweakey.Words]*nibble.State
}

// Harness runs a self-test once and then any number of search trials.
type Harness struct {
	Params  Params
	Rand    *prng.Source
	Fixed   Fixed
	Options SearchOptions

	phase    Phase
	selfTest *SelfTestReport
}

// NewHarness validates p and returns a harness in the self-test phase.
func NewHarness(p Params, rng *prng.Source, opts SearchOptions) (*Harness, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("integral: harness needs a random source")
	}
	return &Harness{Params: p, Rand: rng, Options: opts}, nil
}

// Phase reports where the harness is.
func (h *Harness) Phase() Phase { return h.phase }

// SelfTestReport returns the self-test outcome, nil before it ran.
func (h *Harness) SelfTestReport() *SelfTestReport { return h.selfTest }

// SelfTest runs the round trip and, on success, moves to the search phase.
func (h *Harness) SelfTest() (*SelfTestReport, error) {
	rep, err := SelfTest(h.Rand, h.Params.Fork)
	if err != nil {
		return nil, err
	}
	h.selfTest = rep
	if !rep.Passed {
		log.Error().Str("plaintext", rep.Plaintext.String()).Str("decrypted", rep.Decrypted.String()).Msg("self-test failed")
		return rep, ErrSelfTestFailed
	}
	log.Info().Stringer("fork", h.Params.Fork).Msg("self-test passed")
	h.phase = PhaseSearch
	return rep, nil
}

// drawTrial picks the base material and the control position for one trial.
func (h *Harness) drawTrial() (Base, int) {
	base := Base{Tweakey: h.Rand.Tweakey(), Plaintext: h.Rand.State()}
	for w, fixed := range h.Fixed.Tweakey {
		if fixed != nil {
			base.Tweakey[w] = fixed.Masked()
		}
	}
	if h.Fixed.Plaintext != nil {
		base.Plaintext = h.Fixed.Plaintext.Masked()
	}
	control := h.Rand.Choice(h.Params.ControlCandidates())
	return base, control
}

// Trial runs one search sweep on fresh base material. It refuses to run
// before a passing self-test.
func (h *Harness) Trial(ctx context.Context, n int) (*Result, error) {
	if h.phase != PhaseSearch {
		return nil, fmt.Errorf("integral: search requested in %s phase", h.phase)
	}
	base, control := h.drawTrial()
	h.Options.Progress.startTrial(n, h.Params.Encryptions())
	log.Debug().Int("trial", n).Int("control", control).Str("tk", base.Tweakey.String()).Str("pt", base.Plaintext.String()).Msg("trial started")
	res, err := Search(ctx, h.Params, base, control, h.Options)
	if err != nil {
		return nil, err
	}
	log.Info().Int("trial", n).Uint8("target_sum", uint8(res.TargetSum)).Uint8("control_sum", uint8(res.ControlSum)).Dur("elapsed", res.Elapsed).Msg("trial done")
	return res, nil
}

// Run does the self-test followed by trials sweeps, handing each result to
// each (which may be nil). A failed self-test returns ErrSelfTestFailed and
// no search is attempted.
func (h *Harness) Run(ctx context.Context, trials int, each func(*Result) error) ([]*Result, error) {
	if h.phase == PhaseSelfTest {
		if _, err := h.SelfTest(); err != nil {
			return nil, err
		}
	}
	h.Options.Progress.SetTrials(trials)
	results := make([]*Result, 0, trials)
	for n := 1; n <= trials; n++ {
		res, err := h.Trial(ctx, n)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if each != nil {
			if err := each(res); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}
