package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteAttemptsExactlyOnce(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})

	attempts := 0
	errRemote := errors.New("remote failure")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errRemote
	}, nil)
	if !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("fail-fast violated: expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errRemote := errors.New("remote failure")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{RecordFailure: true}
	}

	for i := 0; i < 2; i++ {
		_ = exec.Execute(context.Background(), "op", func(context.Context) error {
			return errRemote
		}, classifier)
	}

	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	}, classifier)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected callback to be refused while circuit is open, got %d calls", calls)
	}
}

func TestExecuteIgnoresNonRecordedFailures(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errClient := errors.New("client-side")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{RecordFailure: false}
	}

	for i := 0; i < 5; i++ {
		_ = exec.Execute(context.Background(), "op", func(context.Context) error {
			return errClient
		}, classifier)
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		return nil
	}, classifier)
	if err != nil {
		t.Fatalf("breaker must stay closed for non-recorded failures, got %v", err)
	}
}

func TestExecuteRespectsCancelledContext(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := exec.Execute(ctx, "op", func(context.Context) error {
		calls++
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no attempt on cancelled context, got %d", calls)
	}
}
