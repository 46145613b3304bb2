package llm

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryingCompleter retries transient failures with exponential backoff
// and jitter.
type RetryingCompleter struct {
	next        Completer
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *slog.Logger
}

// RetryOption configures a RetryingCompleter.
type RetryOption func(*RetryingCompleter)

// WithMaxAttempts bounds the total number of calls, including the first.
func WithMaxAttempts(n int) RetryOption {
	return func(r *RetryingCompleter) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBackoff sets the first delay and the cap.
func WithBackoff(base, max time.Duration) RetryOption {
	return func(r *RetryingCompleter) {
		r.baseDelay = base
		r.maxDelay = max
	}
}

// WithSleep replaces the wait between attempts. Tests use it to avoid real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *RetryingCompleter) {
		r.sleep = sleep
	}
}

// WithRetryLogger sets the logger used for retry notices.
func WithRetryLogger(l *slog.Logger) RetryOption {
	return func(r *RetryingCompleter) {
		r.logger = l
	}
}

// NewRetrying wraps next with the default policy of 3 attempts.
func NewRetrying(next Completer, opts ...RetryOption) *RetryingCompleter {
	r := &RetryingCompleter{
		next:        next,
		maxAttempts: 3,
		baseDelay:   500 * time.Millisecond,
		maxDelay:    8 * time.Second,
		sleep:       sleepCtx,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Complete implements Completer.
func (r *RetryingCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		resp, err := r.next.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == r.maxAttempts {
			break
		}

		delay := r.backoff(attempt)
		r.logger.Warn("completion failed, retrying",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"delay", delay,
			"error", err)
		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	if !IsRetryable(lastErr) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("completion failed after %d attempts: %w", r.maxAttempts, lastErr)
}

// backoff is base * 2^(attempt-1) plus up to 20% jitter, capped.
func (r *RetryingCompleter) backoff(attempt int) time.Duration {
	d := r.baseDelay << (attempt - 1)
	if r.maxDelay > 0 && d > r.maxDelay {
		d = r.maxDelay
	}
	if d > 0 {
		d += time.Duration(rand.Int64N(int64(d)/5 + 1))
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
