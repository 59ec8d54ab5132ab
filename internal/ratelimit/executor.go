// Package ratelimit bounds concurrency and retries for outbound provider calls.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Executor guards outbound calls with a semaphore and exponential-backoff
// retry. One executor per process; every embedding, generation and
// classification call routes through it.
type Executor struct {
	sem        chan struct{}
	maxRetries int
	retryDelay time.Duration
	backoff    float64
	retryable  func(error) bool

	mu         sync.Mutex
	total      int64
	successful int64
	failed     int64
	retried    int64
}

// Stats is a snapshot of executor counters.
type Stats struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	FailedRequests     int64   `json:"failed_requests"`
	RetriedRequests    int64   `json:"retried_requests"`
	SuccessRate        float64 `json:"success_rate"`
	RetryRate          float64 `json:"retry_rate"`
	InFlight           int     `json:"in_flight"`
	MaxConcurrent      int     `json:"max_concurrent"`
	MaxRetries         int     `json:"max_retries"`
}

// New creates an executor. The retryable predicate decides which errors are
// worth retrying; nil means never retry.
func New(maxConcurrent, maxRetries int, retryDelay time.Duration, backoff float64, retryable func(error) bool) *Executor {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if retryable == nil {
		retryable = func(error) bool { return false }
	}

	slog.Info("initialized rate limiter", "max_concurrent", maxConcurrent, "max_retries", maxRetries)

	return &Executor{
		sem:        make(chan struct{}, maxConcurrent),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		backoff:    backoff,
		retryable:  retryable,
	}
}

// Execute runs op under the concurrency limit, retrying transient failures
// with exponential backoff. The permit is held only while op runs, not during
// backoff waits. On exhaustion the last error is returned unwrapped.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	e.mu.Lock()
	e.total++
	e.mu.Unlock()

	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			e.countFailed()
			return ctx.Err()
		}

		err := op(ctx)
		<-e.sem

		if err == nil {
			e.mu.Lock()
			e.successful++
			if attempt > 0 {
				e.retried++
			}
			e.mu.Unlock()
			return nil
		}

		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			lastErr = perm.err
			break
		}
		if attempt >= e.maxRetries || !e.retryable(err) {
			break
		}

		delay := time.Duration(float64(e.retryDelay) * math.Pow(e.backoff, float64(attempt)))
		slog.Warn("retrying after transient error", "attempt", attempt+1, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			e.countFailed()
			return ctx.Err()
		}
	}

	e.countFailed()
	return lastErr
}

// permanentError stops the retry loop regardless of the retryable predicate.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying even when the predicate says it
// is, for operations with side effects that must not repeat. Execute returns
// the original error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func (e *Executor) countFailed() {
	e.mu.Lock()
	e.failed++
	e.mu.Unlock()
}

// Stats returns a snapshot of the counters.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{
		TotalRequests:      e.total,
		SuccessfulRequests: e.successful,
		FailedRequests:     e.failed,
		RetriedRequests:    e.retried,
		InFlight:           len(e.sem),
		MaxConcurrent:      cap(e.sem),
		MaxRetries:         e.maxRetries,
	}
	if e.total > 0 {
		s.SuccessRate = math.Round(float64(e.successful)/float64(e.total)*10000) / 100
		s.RetryRate = math.Round(float64(e.retried)/float64(e.total)*10000) / 100
	}
	return s
}

// ResetStats zeroes the counters.
func (e *Executor) ResetStats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.total, e.successful, e.failed, e.retried = 0, 0, 0, 0
}

// Do runs op through the executor and returns its result.
func Do[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		r, opErr := op(ctx)
		if opErr != nil {
			return opErr
		}
		result = r
		return nil
	})
	return result, err
}
