package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyRecoversFromTransientFailure(t *testing.T) {
	p := NewRetryPolicy(2, time.Millisecond)
	attempts := 0
	err := p.Do(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d", attempts)
	}
}

func TestRetryPolicyExhausts(t *testing.T) {
	p := NewRetryPolicy(1, time.Millisecond)
	boom := errors.New("boom")
	attempts := 0
	err := p.Do(func() error {
		attempts++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d", attempts)
	}
}
