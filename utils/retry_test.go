package utils

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func testRetry(maxAttempts int, delay time.Duration) *RetryConfig {
	return &RetryConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   delay,
		Logger:      NewLoggerAt(LevelError),
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := testRetry(3, time.Millisecond).Do(context.Background(), "flaky step", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d; want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := testRetry(3, time.Millisecond).Do(context.Background(), "doomed step", func() error {
		calls++
		return errors.New("permanent")
	})

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d; want exactly MaxAttempts", calls)
	}
	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("error %q does not report the attempt count", err)
	}
}

func TestRetryZeroAttemptsClampsToOne(t *testing.T) {
	calls := 0
	_ = testRetry(0, time.Millisecond).Do(context.Background(), "unclamped", func() error {
		calls++
		return errors.New("still fails")
	})

	if calls != 1 {
		t.Errorf("calls = %d; want 1 (MaxAttempts clamped up)", calls)
	}
}

func TestRetryStopsWhenCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- testRetry(5, time.Hour).Do(ctx, "slow step", func() error {
			calls++
			cancel()
			return errors.New("fails once")
		})
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected cancellation error")
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error %v does not wrap context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled retry kept backing off")
	}

	if calls != 1 {
		t.Errorf("calls = %d; want 1 (no attempt after cancellation)", calls)
	}
}

func TestRetryDoesNotRunUnderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := testRetry(3, time.Millisecond).Do(ctx, "never starts", func() error {
		calls++
		return nil
	})

	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if calls != 0 {
		t.Errorf("calls = %d; want 0", calls)
	}
}
