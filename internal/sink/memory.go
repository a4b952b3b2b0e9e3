package sink

import (
	"context"
	"sync"

	"github.com/tlareau/jobsift/internal/scrape"
)

// Memory retains records in memory, for tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	records []scrape.JobRecord
}

// NewMemory constructs an empty memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Append stores the record.
func (s *Memory) Append(_ context.Context, record scrape.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Records returns a copy of everything appended so far.
func (s *Memory) Records() []scrape.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]scrape.JobRecord, len(s.records))
	copy(out, s.records)
	return out
}
