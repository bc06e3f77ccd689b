package pipeline

import (
	"context"
	"errors"
	"math"
	"time"
)

// RetryClassifier reports whether an error is worth retrying.
type RetryClassifier func(error) bool

// ExponentialRetryPolicy decides retry eligibility and backoff delays for
// transient external-call failures. It is shared by any call site needing
// retries rather than duplicated per caller.
type ExponentialRetryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	multiplier float64
	retryable  RetryClassifier
}

// NewExponentialRetryPolicy builds a policy. maxRetries counts retries after
// the first attempt; classifier may be nil, in which case any non-nil error
// is considered transient.
func NewExponentialRetryPolicy(
	maxRetries int,
	baseDelay time.Duration,
	multiplier float64,
	classifier RetryClassifier,
) *ExponentialRetryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	if multiplier < 1 {
		multiplier = 2
	}
	return &ExponentialRetryPolicy{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		multiplier: multiplier,
		retryable:  classifier,
	}
}

// ShouldRetry decides whether another attempt is allowed after err. attempt
// is zero-based: the value 0 means the first attempt just failed.
func (p *ExponentialRetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxRetries {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.retryable != nil {
		return p.retryable(err)
	}
	return true
}

// Backoff returns the wait before retrying the given zero-based attempt.
// With the default base of 2s and multiplier 2 the schedule is exactly
// 2s, 4s, 8s, 16s, 32s.
func (p *ExponentialRetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return time.Duration(float64(p.baseDelay) * math.Pow(p.multiplier, float64(attempt)))
}

// MaxRetries exposes the ceiling for logging.
func (p *ExponentialRetryPolicy) MaxRetries() int { return p.maxRetries }
