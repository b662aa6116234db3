package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harunnryd/teller/pkg/resilience"
)

func TestRetrySucceedsAfterTransientError(t *testing.T) {
	attempts := 0
	resp, err := Retry(context.Background(), RetryConfig{
		MaxAttempts: 3,
		Sleep:       func(time.Duration) {},
	}, func(context.Context) (Response, error) {
		attempts++
		if attempts < 2 {
			return Response{}, errors.New("transient")
		}
		return Response{Text: "ok"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "ok" || attempts != 2 {
		t.Fatalf("expected success on attempt 2, got %q after %d attempts", resp.Text, attempts)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), RetryConfig{
		MaxAttempts: 5,
		IsRetryable: func(error) bool { return false },
		Sleep:       func(time.Duration) {},
	}, func(context.Context) (Response, error) {
		attempts++
		return Response{}, errors.New("fatal")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestRetryDoesNotRetryRateLimits(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), RetryConfig{
		MaxAttempts: 4,
		Sleep:       func(time.Duration) {},
	}, func(context.Context) (Response, error) {
		attempts++
		return Response{}, resilience.RateLimitError{Provider: "openrouter"}
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if attempts != 1 {
		t.Fatalf("rate limits must not be retried, got %d attempts", attempts)
	}
}

func TestRetryHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Retry(ctx, RetryConfig{MaxAttempts: 3}, func(context.Context) (Response, error) {
		t.Fatalf("fn must not run with cancelled context")
		return Response{}, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
