// Package sink persists normalized records. Appends are independent and
// order-insensitive; nothing is rolled back when a later task fails.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/tlareau/jobsift/internal/scrape"
)

// JSONL appends one JSON object per line to a file on disk.
type JSONL struct {
	mu     sync.Mutex
	file   *os.File
	logger *zap.Logger
}

// NewJSONL opens (or creates) the output file in append mode.
func NewJSONL(path string, logger *zap.Logger) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create sink dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open sink file %s: %w", path, err)
	}
	return &JSONL{file: file, logger: logger}, nil
}

// Append writes one record as a JSON line.
func (s *JSONL) Append(ctx context.Context, record scrape.JobRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	s.logger.Debug("record appended", zap.String("source_url", record.SourceURL))
	return nil
}

// Close flushes and closes the output file.
func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close sink file: %w", err)
	}
	return nil
}
