package integral

import (
	"sync/atomic"
	"time"
)

// Progress is updated by search workers and read by status reporters.
// The zero value is ready to use.
type Progress struct {
	trial     atomic.Int64
	trials    atomic.Int64
	done      atomic.Uint64
	total     atomic.Uint64
	startedAt atomic.Int64
}

// ProgressSnapshot is a point-in-time copy of Progress.
type ProgressSnapshot struct {
	Trial       int64     `json:"trial"`
	Trials      int64     `json:"trials"`
	Encryptions uint64    `json:"encryptions"`
	Total       uint64    `json:"total"`
	Percent     float64   `json:"percent"`
	StartedAt   time.Time `json:"started_at"`
}

func (p *Progress) startTrial(trial int, total uint64) {
	if p == nil {
		return
	}
	p.trial.Store(int64(trial))
	p.done.Store(0)
	p.total.Store(total)
	p.startedAt.Store(time.Now().UnixNano())
}

// SetTrials records how many trials the current run will do.
func (p *Progress) SetTrials(n int) {
	if p == nil {
		return
	}
	p.trials.Store(int64(n))
}

func (p *Progress) add(n uint64) {
	if p == nil {
		return
	}
	p.done.Add(n)
}

// Snapshot reads the counters. A nil Progress reads as zero.
func (p *Progress) Snapshot() ProgressSnapshot {
	if p == nil {
		return ProgressSnapshot{}
	}
	s := ProgressSnapshot{
		Trial:       p.trial.Load(),
		Trials:      p.trials.Load(),
		Encryptions: p.done.Load(),
		Total:       p.total.Load(),
	}
	if ns := p.startedAt.Load(); ns != 0 {
		s.StartedAt = time.Unix(0, ns)
	}
	if s.Total > 0 {
		s.Percent = 100 * float64(s.Encryptions) / float64(s.Total)
	}
	return s
}
