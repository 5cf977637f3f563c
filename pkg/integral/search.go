package integral

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"forkskinny-go/pkg/forkcipher"
	"forkskinny-go/pkg/nibble"
	"forkskinny-go/pkg/tweakey"
)

// Base is the fixed, non-active material of one trial.
type Base struct {
	Tweakey   tweakey.Tweakey `json:"tweakey"`
	Plaintext nibble.State    `json:"plaintext"`
}

// Result holds both XOR sums of one full sweep.
type Result struct {
	Params     Params
	Base       Base
	Control    int
	TargetSum  nibble.Cell
	ControlSum nibble.Cell

	TweakeyAssignments   uint64
	PlaintextAssignments uint64
	Encryptions          uint64
	Elapsed              time.Duration
}

// SearchOptions tunes how the sweep is executed. It never changes the sums.
type SearchOptions struct {
	// Workers is the number of partitions; 0 means one per CPU.
	Workers  int
	Progress *Progress
}

type partial struct {
	target, control nibble.Cell
	encryptions     uint64
}

// partitions splits [0,total) into at most n contiguous chunks.
func partitions(total uint64, n int) [][2]uint64 {
	if n < 1 {
		n = 1
	}
	if uint64(n) > total {
		n = int(total)
	}
	out := make([][2]uint64, 0, n)
	size, rem := total/uint64(n), total%uint64(n)
	var lo uint64
	for i := 0; i < n; i++ {
		hi := lo + size
		if uint64(i) < rem {
			hi++
		}
		out = append(out, [2]uint64{lo, hi})
		lo = hi
	}
	return out
}

// fold sweeps tweakey assignments [lo,hi) and every plaintext assignment.
// The round-tweakey stream is expanded once per tweakey assignment.
func fold(ctx context.Context, p Params, base Base, control int, lo, hi uint64, prog *Progress) (partial, error) {
	var acc partial
	npt := p.PlaintextAssignments()
	for tc := lo; tc < hi; tc++ {
		if err := ctx.Err(); err != nil {
			return acc, err
		}
		c, err := forkcipher.New(p.applyTweakey(base.Tweakey, tc), p.Fork)
		if err != nil {
			return acc, err
		}
		for pc := uint64(0); pc < npt; pc++ {
			ct := c.Encrypt(p.applyPlaintext(base.Plaintext, pc))
			for _, pos := range p.Targets {
				acc.target ^= ct[pos]
			}
			acc.control ^= ct[control]
		}
		acc.encryptions += npt
		prog.add(npt)
	}
	return acc, nil
}

// Search runs the full sweep for one trial. The outer counter is split
// into partitions folded concurrently; the partial sums are XORed together
// at the end. Cancelling ctx stops every partition at its next tweakey
// assignment and returns ctx's error.
func Search(ctx context.Context, p Params, base Base, control int, opts SearchOptions) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if control < 0 || control >= nibble.StateSize {
		return nil, fmt.Errorf("%w: control position %d outside [0,%d]", ErrInvalidParams, control, nibble.StateSize-1)
	}
	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	start := time.Now()
	parts := partitions(p.TweakeyAssignments(), workers)
	sums := make([]partial, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range parts {
		g.Go(func() error {
			acc, err := fold(gctx, p, base, control, r[0], r[1], opts.Progress)
			sums[i] = acc
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		Params:               p,
		Base:                 base,
		Control:              control,
		TweakeyAssignments:   p.TweakeyAssignments(),
		PlaintextAssignments: p.PlaintextAssignments(),
		Elapsed:              time.Since(start),
	}
	for _, s := range sums {
		res.TargetSum ^= s.target
		res.ControlSum ^= s.control
		res.Encryptions += s.encryptions
	}
	return res, nil
}
