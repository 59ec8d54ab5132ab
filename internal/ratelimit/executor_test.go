package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errTransient = errors.New("connection reset")

func alwaysRetry(error) bool { return true }

func TestRetrySucceedsAfterFailures(t *testing.T) {
	e := New(2, 2, time.Millisecond, 2.0, alwaysRetry)

	calls := 0
	err := e.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls <= 2 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if calls != 3 {
		t.Errorf("operation invoked %d times, want 3", calls)
	}

	stats := e.Stats()
	if stats.RetriedRequests != 1 {
		t.Errorf("retried_requests = %d, want 1", stats.RetriedRequests)
	}
	if stats.SuccessfulRequests != 1 {
		t.Errorf("successful_requests = %d, want 1", stats.SuccessfulRequests)
	}
}

func TestRetryExhaustionReturnsOriginalError(t *testing.T) {
	e := New(2, 2, time.Millisecond, 2.0, alwaysRetry)

	calls := 0
	err := e.Execute(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("got %v, want original error", err)
	}
	if calls != 3 {
		t.Errorf("operation invoked %d times, want 3", calls)
	}

	stats := e.Stats()
	if stats.FailedRequests != 1 {
		t.Errorf("failed_requests = %d, want 1", stats.FailedRequests)
	}
}

func TestNonRetryableFailsImmediately(t *testing.T) {
	fatal := errors.New("invalid api key")
	e := New(2, 3, time.Millisecond, 2.0, func(err error) bool { return !errors.Is(err, fatal) })

	calls := 0
	err := e.Execute(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("got %v, want fatal error", err)
	}
	if calls != 1 {
		t.Errorf("operation invoked %d times, want 1", calls)
	}
}

func TestPermanentStopsRetry(t *testing.T) {
	e := New(2, 3, time.Millisecond, 2.0, alwaysRetry)

	calls := 0
	err := e.Execute(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errTransient)
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("got %v, want original error", err)
	}
	if calls != 1 {
		t.Errorf("operation invoked %d times, want 1", calls)
	}
}

func TestConcurrencyCeiling(t *testing.T) {
	e := New(2, 0, time.Millisecond, 2.0, nil)

	var inFlight, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = e.Execute(context.Background(), func(context.Context) error {
				n := atomic.AddInt64(&inFlight, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
						break
					}
				}
				time.Sleep(30 * time.Millisecond)
				atomic.AddInt64(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if p := atomic.LoadInt64(&peak); p > 2 {
		t.Errorf("peak in-flight = %d, want at most 2", p)
	}
}

func TestContextCancelledDuringBackoff(t *testing.T) {
	e := New(1, 5, 500*time.Millisecond, 2.0, alwaysRetry)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- e.Execute(ctx, func(context.Context) error {
			calls++
			return errTransient
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("execute did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("operation invoked %d times, want 1", calls)
	}
}

func TestDoReturnsResult(t *testing.T) {
	e := New(1, 1, time.Millisecond, 2.0, alwaysRetry)

	got, err := Do(context.Background(), e, func(context.Context) (string, error) {
		return "answer", nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if got != "answer" {
		t.Errorf("got %q, want %q", got, "answer")
	}
}

func TestStatsRates(t *testing.T) {
	e := New(1, 0, time.Millisecond, 2.0, nil)

	_ = e.Execute(context.Background(), func(context.Context) error { return nil })
	_ = e.Execute(context.Background(), func(context.Context) error { return errTransient })

	stats := e.Stats()
	if stats.TotalRequests != 2 {
		t.Errorf("total = %d, want 2", stats.TotalRequests)
	}
	if stats.SuccessRate != 50 {
		t.Errorf("success_rate = %v, want 50", stats.SuccessRate)
	}

	e.ResetStats()
	if s := e.Stats(); s.TotalRequests != 0 {
		t.Errorf("total after reset = %d, want 0", s.TotalRequests)
	}
}
