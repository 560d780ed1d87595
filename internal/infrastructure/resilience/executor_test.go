package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestDoRetriesRetryableFailure(t *testing.T) {
	exec := NewExecutor(Config{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
		BackoffMultiplier: 2,
		BreakerEnabled:    false,
	}, nil)

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Do(context.Background(), "op", func(err error) Outcome {
		return Outcome{Retryable: errors.Is(err, errTemp), CountsAsFailure: true}
	}, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoDoesNotRetryTerminalFailure(t *testing.T) {
	exec := NewExecutor(Config{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
		BackoffMultiplier: 2,
		BreakerEnabled:    false,
	}, nil)

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Do(context.Background(), "op", func(error) Outcome {
		return Outcome{}
	}, func(context.Context) error {
		attempts++
		return errPermanent
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDoStopsRetryingOnContextCancel(t *testing.T) {
	exec := NewExecutor(Config{
		MaxAttempts:       5,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        50 * time.Millisecond,
		BackoffMultiplier: 2,
		BreakerEnabled:    false,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errTemp := errors.New("temporary")
	attempts := 0
	err := exec.Do(ctx, "op", func(error) Outcome {
		return Outcome{Retryable: true, CountsAsFailure: true}
	}, func(context.Context) error {
		attempts++
		cancel()
		return errTemp
	})
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected last operation error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt before cancellation, got %d", attempts)
	}
}

func TestDoOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		MaxAttempts:             1,
		InitialBackoff:          1 * time.Millisecond,
		MaxBackoff:              1 * time.Millisecond,
		BackoffMultiplier:       2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	}, nil)

	errTemp := errors.New("temporary")
	classify := func(error) Outcome {
		return Outcome{CountsAsFailure: true}
	}

	for i := 0; i < 2; i++ {
		err := exec.Do(context.Background(), "op", classify, func(context.Context) error {
			return errTemp
		})
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Do(context.Background(), "op", classify, func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if !IsCircuitOpen(err) {
		t.Fatalf("IsCircuitOpen must report true for %v", err)
	}
}

func TestDoKeepsSeparateBreakersPerOperation(t *testing.T) {
	exec := NewExecutor(Config{
		MaxAttempts:             1,
		InitialBackoff:          1 * time.Millisecond,
		MaxBackoff:              1 * time.Millisecond,
		BackoffMultiplier:       2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}, nil)

	errTemp := errors.New("temporary")
	classify := func(error) Outcome { return Outcome{CountsAsFailure: true} }

	for i := 0; i < 3; i++ {
		_ = exec.Do(context.Background(), "failing", classify, func(context.Context) error {
			return errTemp
		})
	}

	err := exec.Do(context.Background(), "healthy", classify, func(context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("healthy operation must not share the open breaker: %v", err)
	}
}
