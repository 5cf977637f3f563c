// Package store keeps every search trial in a SQLite database so that the
// target sum can be compared across many random choices of the non-active
// material.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"forkskinny-go/pkg/integral"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id               TEXT PRIMARY KEY,
    batch_id         TEXT NOT NULL,
    recorded_at      TEXT NOT NULL,
    seed             TEXT NOT NULL,
    params_key       TEXT NOT NULL,
    params           TEXT NOT NULL,
    base_tweakey     TEXT NOT NULL,
    base_plaintext   TEXT NOT NULL,
    control_position INTEGER NOT NULL,
    target_sum       INTEGER NOT NULL,
    control_sum      INTEGER NOT NULL,
    encryptions      INTEGER NOT NULL,
    elapsed_ns       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_params ON runs (params_key);
CREATE INDEX IF NOT EXISTS idx_runs_recorded ON runs (recorded_at);`

// Run is one stored trial.
type Run struct {
	ID              string          `json:"id"`
	BatchID         string          `json:"batch_id"`
	RecordedAt      time.Time       `json:"recorded_at"`
	Seed            string          `json:"seed"`
	Params          integral.Params `json:"params"`
	BaseTweakey     string          `json:"base_tweakey"`
	BasePlaintext   string          `json:"base_plaintext"`
	ControlPosition int             `json:"control_position"`
	TargetSum       int             `json:"target_sum"`
	ControlSum      int             `json:"control_sum"`
	Encryptions     uint64          `json:"encryptions"`
	Elapsed         time.Duration   `json:"elapsed"`
}

// Summary is the distribution of both sums over stored runs.
type Summary struct {
	ParamsKey     string  `json:"params_key"`
	Runs          int     `json:"runs"`
	TargetCounts  [16]int `json:"target_counts"`
	ControlCounts [16]int `json:"control_counts"`
}

// TargetZero is the number of runs whose target sum was zero.
func (s Summary) TargetZero() int { return s.TargetCounts[0] }

// timeLayout keeps recorded_at lexically ordered.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode=wal&_pragma=busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to ping %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ParamsKey is a stable text key grouping runs of equal parameters.
func ParamsKey(p integral.Params) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("store: encoding params: %w", err)
	}
	return string(b), nil
}

// NewBatchID returns an identifier shared by the trials of one invocation.
func NewBatchID() string {
	return uuid.NewString()
}

// Record stores res under batch and returns the new run.
func (s *Store) Record(ctx context.Context, batch, seed string, res *integral.Result) (*Run, error) {
	key, err := ParamsKey(res.Params)
	if err != nil {
		return nil, err
	}
	run := &Run{
		ID:              uuid.NewString(),
		BatchID:         batch,
		RecordedAt:      s.now().UTC(),
		Seed:            seed,
		Params:          res.Params,
		BaseTweakey:     res.Base.Tweakey.String(),
		BasePlaintext:   res.Base.Plaintext.String(),
		ControlPosition: res.Control,
		TargetSum:       int(res.TargetSum),
		ControlSum:      int(res.ControlSum),
		Encryptions:     res.Encryptions,
		Elapsed:         res.Elapsed,
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO runs (id, batch_id, recorded_at, seed, params_key, params,
                          base_tweakey, base_plaintext, control_position,
                          target_sum, control_sum, encryptions, elapsed_ns)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.BatchID, run.RecordedAt.Format(timeLayout), run.Seed, key, key,
		run.BaseTweakey, run.BasePlaintext, run.ControlPosition,
		run.TargetSum, run.ControlSum, int64(run.Encryptions), int64(run.Elapsed))
	if err != nil {
		return nil, fmt.Errorf("store: failed to insert run: %w", err)
	}
	return run, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var (
			r          Run
			recordedAt string
			params     string
			enc        int64
			elapsed    int64
		)
		if err := rows.Scan(&r.ID, &r.BatchID, &recordedAt, &r.Seed, &params,
			&r.BaseTweakey, &r.BasePlaintext, &r.ControlPosition,
			&r.TargetSum, &r.ControlSum, &enc, &elapsed); err != nil {
			return nil, fmt.Errorf("store: failed to scan run: %w", err)
		}
		t, err := time.Parse(timeLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("store: bad timestamp %q: %w", recordedAt, err)
		}
		r.RecordedAt = t
		if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
			return nil, fmt.Errorf("store: bad params for run %s: %w", r.ID, err)
		}
		r.Encryptions = uint64(enc)
		r.Elapsed = time.Duration(elapsed)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: error iterating runs: %w", err)
	}
	return runs, nil
}

const selectRuns = `SELECT id, batch_id, recorded_at, seed, params, base_tweakey, base_plaintext,
       control_position, target_sum, control_sum, encryptions, elapsed_ns FROM runs`

// List returns the newest limit runs, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	q := selectRuns + ` ORDER BY recorded_at DESC, id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: failed to list runs: %w", err)
	}
	return scanRuns(rows)
}

// Batch returns the runs of one invocation in recording order.
func (s *Store) Batch(ctx context.Context, batch string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRuns+` WHERE batch_id = ? ORDER BY recorded_at, id`, batch)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query batch %s: %w", batch, err)
	}
	return scanRuns(rows)
}

// Summarize counts sum values over all runs with parameters p.
func (s *Store) Summarize(ctx context.Context, p integral.Params) (*Summary, error) {
	key, err := ParamsKey(p)
	if err != nil {
		return nil, err
	}
	sum := &Summary{ParamsKey: key}
	rows, err := s.db.QueryContext(ctx, `SELECT target_sum, control_sum FROM runs WHERE params_key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("store: failed to summarize: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var target, control int
		if err := rows.Scan(&target, &control); err != nil {
			return nil, fmt.Errorf("store: failed to scan sums: %w", err)
		}
		sum.Runs++
		sum.TargetCounts[target&0xf]++
		sum.ControlCounts[control&0xf]++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: error iterating sums: %w", err)
	}
	return sum, nil
}
