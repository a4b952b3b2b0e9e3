// Package queue provides the bounded in-memory task queue feeding the
// detail workers.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tlareau/jobsift/internal/scrape"
)

// ErrClosed is returned by Dequeue once the queue is closed and drained.
var ErrClosed = errors.New("queue closed")

// Memory is a bounded queue with context-aware operations.
type Memory struct {
	ch      chan scrape.CrawlTask
	closeMu sync.Mutex
	closed  bool
}

// NewMemory constructs a queue with the provided capacity.
func NewMemory(capacity int) *Memory {
	return &Memory{
		ch: make(chan scrape.CrawlTask, capacity),
	}
}

// Enqueue pushes a task or returns when the context ends.
func (q *Memory) Enqueue(ctx context.Context, task scrape.CrawlTask) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- task:
		return nil
	}
}

// Dequeue pops the next task, respecting context cancellation. After Close,
// it drains remaining tasks and then returns ErrClosed.
func (q *Memory) Dequeue(ctx context.Context) (scrape.CrawlTask, error) {
	select {
	case <-ctx.Done():
		return scrape.CrawlTask{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case task, ok := <-q.ch:
		if !ok {
			return scrape.CrawlTask{}, ErrClosed
		}
		return task, nil
	}
}

// Close closes the queue for shutdown. Safe to call more than once.
func (q *Memory) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
