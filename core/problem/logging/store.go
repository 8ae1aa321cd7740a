package logging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/ehsim/core/device"
	"github.com/kilianp07/ehsim/core/problem"
)

// Record captures one improving candidate of an optimisation run.
type Record struct {
	Timestamp time.Time         `json:"timestamp"`
	RunID     string            `json:"run_id"`
	Instance  string            `json:"instance"`
	Iteration int               `json:"iteration"`
	Cost      float64           `json:"cost"`
	PartCost  float64           `json:"part_cost"`
	MeterCost float64           `json:"meter_cost"`
	Summary   problem.Summary   `json:"summary"`
	Parts     []device.Result   `json:"parts,omitempty"`
	Schedule  *problem.Snapshot `json:"schedule,omitempty"`
}

// NewRecord fills a record from an evaluation.
func NewRecord(runID, instance string, iteration int, ev *problem.Evaluation, snap *problem.Snapshot) Record {
	return Record{
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		Instance:  instance,
		Iteration: iteration,
		Cost:      ev.Cost,
		PartCost:  ev.PartCost,
		MeterCost: ev.MeterCost,
		Summary:   ev.Summary,
		Parts:     ev.Parts,
		Schedule:  snap,
	}
}

// ErrNoRecords is returned by Best when a run logged nothing.
var ErrNoRecords = errors.New("no records")

// Query defines filters for retrieving records. Zero fields match all.
type Query struct {
	Start    time.Time
	End      time.Time
	RunID    string
	Instance string
	// Limit caps the number of returned records, oldest first. Zero means
	// no cap.
	Limit int
}

func (q Query) full(n int) bool { return q.Limit > 0 && n >= q.Limit }

// Match reports whether r passes the filters.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	return q.Instance == "" || r.Instance == q.Instance
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Best returns the cheapest record of a run. Stores that can answer this
// themselves are asked directly; others are scanned. Ties keep the earliest
// record.
func Best(ctx context.Context, s Store, runID string) (Record, error) {
	if b, ok := s.(interface {
		Best(context.Context, string) (Record, error)
	}); ok {
		return b.Best(ctx, runID)
	}
	recs, err := s.Query(ctx, Query{RunID: runID})
	if err != nil {
		return Record{}, err
	}
	if len(recs) == 0 {
		return Record{}, fmt.Errorf("run %s: %w", runID, ErrNoRecords)
	}
	best := recs[0]
	for _, r := range recs[1:] {
		if r.Cost < best.Cost {
			best = r
		}
	}
	return best, nil
}

// Config selects and parameterises a store backend.
type Config struct {
	// Backend is one of jsonl, rotating, sqlite or none.
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// Open creates the configured store.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "none":
		return NopStore{}, nil
	case "jsonl":
		return NewJSONLStore(cfg.Path)
	case "rotating":
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown evaluation log backend %q", cfg.Backend)
	}
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
