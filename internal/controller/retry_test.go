package controller

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type timeoutNetError struct{ timeout bool }

func (e timeoutNetError) Error() string   { return "dial tcp: i/o timeout" }
func (e timeoutNetError) Timeout() bool   { return e.timeout }
func (e timeoutNetError) Temporary() bool { return false }

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	policy := newRetryPolicy(3)
	tests := []struct {
		name    string
		ctx     context.Context
		err     error
		attempt int
		want    bool
	}{
		{
			name:    "attempt deadline is retried",
			ctx:     context.Background(),
			err:     fmt.Errorf("navigate https://example.com/job-detail/a: %w", context.DeadlineExceeded),
			attempt: 1,
			want:    true,
		},
		{
			name:    "run cancellation is not retried",
			ctx:     canceled,
			err:     fmt.Errorf("navigate: %w", context.Canceled),
			attempt: 1,
			want:    false,
		},
		{
			name:    "deadline after run cancel is not retried",
			ctx:     canceled,
			err:     fmt.Errorf("navigate: %w", context.DeadlineExceeded),
			attempt: 1,
			want:    false,
		},
		{
			name:    "wrapped cancellation with live run is not retried",
			ctx:     context.Background(),
			err:     fmt.Errorf("navigate: %w", context.Canceled),
			attempt: 1,
			want:    false,
		},
		{
			name:    "network timeout is retried",
			ctx:     context.Background(),
			err:     fmt.Errorf("fetch: %w", timeoutNetError{timeout: true}),
			attempt: 2,
			want:    true,
		},
		{
			name:    "non-timeout network error is not retried",
			ctx:     context.Background(),
			err:     fmt.Errorf("fetch: %w", timeoutNetError{timeout: false}),
			attempt: 1,
			want:    false,
		},
		{
			name:    "generic error is retried",
			ctx:     context.Background(),
			err:     errors.New("wait visible: node not found"),
			attempt: 2,
			want:    true,
		},
		{
			name:    "exhausted attempts are not retried",
			ctx:     context.Background(),
			err:     fmt.Errorf("navigate: %w", context.DeadlineExceeded),
			attempt: 3,
			want:    false,
		},
		{
			name:    "nil error is not retried",
			ctx:     context.Background(),
			err:     nil,
			attempt: 1,
			want:    false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, policy.ShouldRetry(tt.ctx, tt.err, tt.attempt))
		})
	}
}

func TestRetryPolicy_BackoffIsBounded(t *testing.T) {
	t.Parallel()

	policy := newRetryPolicy(5)
	for attempt := 0; attempt < 8; attempt++ {
		d := policy.Backoff(attempt)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, policy.maxDelay)
	}
}
