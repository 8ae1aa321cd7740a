package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	ts        INTEGER NOT NULL,
	run_id    TEXT    NOT NULL,
	instance  TEXT    NOT NULL,
	iteration INTEGER NOT NULL,
	cost      REAL    NOT NULL,
	record    TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS evaluations_run ON evaluations (run_id, cost);`

// SQLiteStore keeps records in a SQLite database through the pure Go
// modernc driver. Filter columns are stored next to the JSON record.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, errors.Join(fmt.Errorf("create schema: %w", err), db.Close())
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evaluations (ts, run_id, instance, iteration, cost, record) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.UnixNano(), rec.RunID, rec.Instance, rec.Iteration, rec.Cost, string(data))
	return err
}

// Query returns the matching records in insertion order.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if !q.Start.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		where = append(where, "ts <= ?")
		args = append(args, q.End.UnixNano())
	}
	if q.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, q.RunID)
	}
	if q.Instance != "" {
		where = append(where, "instance = ?")
		args = append(args, q.Instance)
	}
	stmt := "SELECT record FROM evaluations"
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY id"
	if q.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		r, err := unmarshalRecord(data)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// Best returns the cheapest record of a run using the run index.
func (s *SQLiteStore) Best(ctx context.Context, runID string) (Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM evaluations WHERE run_id = ? ORDER BY cost, id LIMIT 1`, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("run %s: %w", runID, ErrNoRecords)
	}
	if err != nil {
		return Record{}, err
	}
	return unmarshalRecord(data)
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func unmarshalRecord(data string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return r, nil
}
