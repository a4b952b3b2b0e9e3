package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tlareau/jobsift/internal/scrape"
)

func TestMemory_EnqueueDequeue(t *testing.T) {
	t.Parallel()

	q := NewMemory(2)
	ctx := context.Background()

	task := scrape.CrawlTask{URL: "https://example.com/job-detail/a", Kind: scrape.TaskDetail}
	require.NoError(t, q.Enqueue(ctx, task))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, task, got)
}

func TestMemory_DequeueRespectsContext(t *testing.T) {
	t.Parallel()

	q := NewMemory(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemory_CloseDrainsThenErrClosed(t *testing.T) {
	t.Parallel()

	q := NewMemory(2)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, scrape.CrawlTask{URL: "a", Kind: scrape.TaskDetail}))
	q.Close()
	q.Close()

	_, err := q.Dequeue(ctx)
	require.NoError(t, err)

	_, err = q.Dequeue(ctx)
	require.ErrorIs(t, err, ErrClosed)
}
