package controller

import (
	"sync"
	"sync/atomic"
)

// seenSet provides thread-safe canonical-URL tracking so a detail page is
// visited at most once per run.
type seenSet struct {
	urls sync.Map
}

func newSeenSet() *seenSet {
	return &seenSet{}
}

// MarkIfNew stores the URL if it has not been seen before and returns true.
func (s *seenSet) MarkIfNew(url string) bool {
	if url == "" {
		return false
	}
	_, loaded := s.urls.LoadOrStore(url, struct{}{})
	return !loaded
}

// budget gates detail enqueues against the requested record count. A slot is
// claimed at enqueue time and released when a task is abandoned, so later
// listing pages can backfill failed work.
type budget struct {
	target  int64
	claimed atomic.Int64
}

func newBudget(target int) *budget {
	return &budget{target: int64(target)}
}

// claim reserves one slot, returning false when the target is covered.
func (b *budget) claim() bool {
	for {
		cur := b.claimed.Load()
		if cur >= b.target {
			return false
		}
		if b.claimed.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// release returns an abandoned slot to the pool.
func (b *budget) release() {
	b.claimed.Add(-1)
}

// remaining reports how many slots are still open.
func (b *budget) remaining() int {
	rem := b.target - b.claimed.Load()
	if rem < 0 {
		return 0
	}
	return int(rem)
}
