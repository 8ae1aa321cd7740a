package logging

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ehsim/core/problem"
	"github.com/kilianp07/ehsim/core/translate"
)

func record(run, instance string, iteration int, cost float64, ts time.Time) Record {
	return Record{
		Timestamp: ts,
		RunID:     run,
		Instance:  instance,
		Iteration: iteration,
		Cost:      cost,
		Schedule: &problem.Snapshot{
			Scheme: "binary-bistate-2",
			Length: 4,
			Parts: []problem.PartSchedule{{
				Name: "chp",
				Blocks: []translate.Values{{
					Type:        translate.Boolean,
					Booleans:    []bool{true, true},
					Transitions: []translate.Transition{translate.TurnOn, translate.Hold},
				}},
			}},
		},
	}
}

func TestRecordJSON(t *testing.T) {
	rec := record("r1", "hill-0", 3, 1.5, time.Unix(0, 0).UTC())
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"timestamp", "run_id", "instance", "iteration", "cost", "summary", "schedule"} {
		assert.Contains(t, m, k)
	}
	assert.Contains(t, string(data), `"transitions":["on","hold"]`)
	assert.Contains(t, string(data), `"type":"boolean"`)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec.Schedule.Parts[0].Blocks, back.Schedule.Parts[0].Blocks)
}

func TestQueryMatch(t *testing.T) {
	now := time.Now()
	r := record("r1", "a", 0, 1, now)
	assert.True(t, Query{}.Match(r))
	assert.True(t, Query{RunID: "r1", Instance: "a"}.Match(r))
	assert.False(t, Query{RunID: "r2"}.Match(r))
	assert.False(t, Query{Instance: "b"}.Match(r))
	assert.False(t, Query{Start: now.Add(time.Second)}.Match(r))
	assert.False(t, Query{End: now.Add(-time.Second)}.Match(r))
}

// exercise appends three records over two runs and queries them back.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Append(ctx, record("r1", "a", 0, 5, base)))
	require.NoError(t, s.Append(ctx, record("r1", "b", 1, 3, base.Add(time.Second))))
	require.NoError(t, s.Append(ctx, record("r2", "a", 0, 4, base.Add(2*time.Second))))

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	r1, err := s.Query(ctx, Query{RunID: "r1"})
	require.NoError(t, err)
	require.Len(t, r1, 2)
	assert.Equal(t, 5.0, r1[0].Cost)
	assert.Equal(t, 3.0, r1[1].Cost)

	a, err := s.Query(ctx, Query{Instance: "a", Start: base.Add(time.Second)})
	require.NoError(t, err)
	require.Len(t, a, 1)
	assert.Equal(t, "r2", a[0].RunID)
	assert.Equal(t, "chp", a[0].Schedule.Parts[0].Name)

	first, err := s.Query(ctx, Query{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 5.0, first[0].Cost)

	best, err := Best(ctx, s, "r1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, best.Cost)
	assert.Equal(t, "b", best.Instance)
	assert.Equal(t, 1, best.Iteration)

	_, err = Best(ctx, s, "missing")
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "evals.jsonl"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "evals.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestRotatingJSONLStoreRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evals.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	rec := record("r1", "a", 0, 1, time.Now())
	rec.Parts = nil
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	n := (1<<20)/len(data) + 10
	for i := 0; i < n; i++ {
		require.NoError(t, s.Append(context.Background(), rec))
	}
	backups, err := filepath.Glob(filepath.Join(dir, "evals-*.jsonl"))
	require.NoError(t, err)
	assert.NotEmpty(t, backups)

	out, err := s.Query(context.Background(), Query{RunID: "r1"})
	require.NoError(t, err)
	assert.Len(t, out, n)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "evals.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{"", "none", "jsonl", "rotating", "sqlite"} {
		s, err := Open(Config{Backend: backend, Path: filepath.Join(dir, backend+".log"), MaxSizeMB: 1})
		require.NoError(t, err, backend)
		require.NoError(t, s.Append(context.Background(), record("r", "i", 0, 1, time.Now())), backend)
		require.NoError(t, s.Close(), backend)
	}
	_, err := Open(Config{Backend: "kafka"})
	assert.Error(t, err)
}

func TestNopStoreBest(t *testing.T) {
	_, err := Best(context.Background(), NopStore{}, "r")
	assert.ErrorIs(t, err, ErrNoRecords)
}
