package errors

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker("store", CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Second,
		Now:              func() time.Time { return now },
	})

	cb.Mark(errors.New("a"))
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected closed breaker after one failure: %v", err)
	}
	cb.Mark(errors.New("b"))
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}
	if err := cb.Allow(); !IsDegraded(err) {
		t.Fatalf("expected degraded error while open, got %v", err)
	}

	now = now.Add(time.Second)
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected half-open probe to be allowed: %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}
	cb.Mark(nil)
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after successful probe, got %s", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker("store", CircuitBreakerConfig{
		FailureThreshold: 1,
		Timeout:          time.Second,
		Now:              func() time.Time { return now },
	})
	cb.Mark(errors.New("a"))
	now = now.Add(2 * time.Second)
	_ = cb.Allow()
	cb.Mark(errors.New("b"))
	if cb.State() != StateOpen {
		t.Fatalf("expected reopened breaker, got %s", cb.State())
	}
}
