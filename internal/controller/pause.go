package controller

import (
	"context"
	"time"
)

// pauser abstracts politeness and backoff waits so tests can skip them.
type pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}

type timerPauser struct{}

// Pause blocks for delay or until the context is done, whichever is first.
func (timerPauser) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
