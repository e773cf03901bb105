package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), 3, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoSucceedsOnNthAttempt(t *testing.T) {
	var calls int
	transient := errors.New("transient error")

	err := Do(context.Background(), 3, func() error {
		calls++
		if calls < 3 {
			return transient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoExceedsMaxAttempts(t *testing.T) {
	persistent := errors.New("persistent error")
	var calls int

	err := Do(context.Background(), 3, func() error {
		calls++
		return persistent
	})
	if !errors.Is(err, persistent) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoContextAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	err := Do(ctx, 3, func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected 0 calls with cancelled context, got %d", calls)
	}
}

func TestDoDefaultMaxAttempts(t *testing.T) {
	var calls int
	err := Do(context.Background(), 0, func() error {
		calls++
		return errors.New("fail")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != DefaultMaxAttempts {
		t.Errorf("expected %d calls (default), got %d", DefaultMaxAttempts, calls)
	}
}

func TestBackoffProgression(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 0; attempt < 3; attempt++ {
		d := backoff(attempt)
		if attempt > 0 && d <= prev {
			t.Errorf("attempt %d: backoff %v should be > previous %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestBackoffCapped(t *testing.T) {
	d := backoff(100)
	maxWithJitter := maxDelay + time.Duration(float64(maxDelay)*jitterFraction)
	if d > maxWithJitter {
		t.Errorf("backoff %v exceeds max with jitter %v", d, maxWithJitter)
	}
}
