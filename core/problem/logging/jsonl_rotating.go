package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingJSONLStore appends records to a JSONL file that lumberjack rotates
// by size and age. Backups stay uncompressed so Query can read them.
type RotatingJSONLStore struct {
	mu   sync.Mutex
	out  *lumberjack.Logger
	path string
}

// NewRotatingJSONLStore rotates path after maxSizeMB megabytes, keeping at
// most maxBackups files for maxAgeDays days. Zero limits are lumberjack's
// defaults.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &RotatingJSONLStore{
		path: path,
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		},
	}, nil
}

func (s *RotatingJSONLStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.out.Write(append(line, '\n'))
	return err
}

// Query reads the backups oldest first, then the live file.
func (s *RotatingJSONLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	var res []Record
	for _, name := range files {
		if q.full(len(res)) {
			break
		}
		f, err := os.Open(name)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res, err = scan(f, q, res)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// files lists the backups by their timestamp suffix followed by the live
// file.
func (s *RotatingJSONLStore) files() ([]string, error) {
	ext := filepath.Ext(s.path)
	stem := strings.TrimSuffix(s.path, ext)
	backups, err := filepath.Glob(stem + "-*" + ext)
	if err != nil {
		return nil, err
	}
	slices.Sort(backups)
	return append(backups, s.path), nil
}

func (s *RotatingJSONLStore) Close() error {
	return s.out.Close()
}
