package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffSchedule(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(5, 2*time.Second, 2, nil)

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
	}
	for attempt, expected := range want {
		require.Equal(t, expected, policy.Backoff(attempt), "attempt %d", attempt)
	}
}

func TestShouldRetryRespectsCeiling(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(5, 2*time.Second, 2, nil)
	transient := errors.New("rate limited")

	for attempt := 0; attempt < 5; attempt++ {
		require.True(t, policy.ShouldRetry(transient, attempt), "attempt %d", attempt)
	}
	require.False(t, policy.ShouldRetry(transient, 5))
}

func TestShouldRetryUsesClassifier(t *testing.T) {
	t.Parallel()

	permanent := errors.New("malformed request")
	policy := NewExponentialRetryPolicy(5, 2*time.Second, 2, func(err error) bool {
		return !errors.Is(err, permanent)
	})

	require.False(t, policy.ShouldRetry(permanent, 0))
	require.True(t, policy.ShouldRetry(errors.New("transient"), 0))
}

func TestShouldRetryStopsOnContextErrors(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(5, 2*time.Second, 2, nil)
	require.False(t, policy.ShouldRetry(context.Canceled, 0))
	require.False(t, policy.ShouldRetry(context.DeadlineExceeded, 0))
	require.False(t, policy.ShouldRetry(nil, 0))
}
