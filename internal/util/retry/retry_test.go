package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithFixedBackoff_Success(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func(_ int) error {
		attempts++
		return nil
	}

	ctx := context.Background()
	err := WithFixedBackoff(ctx, operation)

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestWithFixedBackoff_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func(_ int) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	ctx := context.Background()
	err := WithFixedBackoff(ctx, operation, WithInterval(10*time.Millisecond))

	if err != nil {
		t.Errorf("Expected no error after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestWithFixedBackoff_Exhaustion(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func(_ int) error {
		attempts++
		return errors.New("persistent error")
	}

	ctx := context.Background()
	err := WithFixedBackoff(ctx, operation, WithMaxAttempts(4), WithInterval(time.Millisecond))

	if !errors.Is(err, ErrExhausted) {
		t.Errorf("Expected ErrExhausted, got: %v", err)
	}
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got: %d", attempts)
	}
}

func TestWithFixedBackoff_AttemptNumbersPassedThrough(t *testing.T) {
	t.Parallel()
	var seen []int
	operation := func(attempt int) error {
		seen = append(seen, attempt)
		return errors.New("nope")
	}

	ctx := context.Background()
	_ = WithFixedBackoff(ctx, operation, WithMaxAttempts(3), WithInterval(time.Millisecond))

	want := []int{1, 2, 3}
	if len(seen) != len(want) {
		t.Fatalf("Expected %d attempts, got: %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("Attempt %d: expected number %d, got %d", i, want[i], seen[i])
		}
	}
}

func TestWithFixedBackoff_FatalStopsRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func(_ int) error {
		attempts++
		return Fatal(errors.New("bad key"))
	}

	ctx := context.Background()
	err := WithFixedBackoff(ctx, operation, WithMaxAttempts(5), WithInterval(time.Millisecond))

	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if errors.Is(err, ErrExhausted) {
		t.Errorf("Fatal error must not be reported as exhaustion: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestWithFixedBackoff_ContextCancellation(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func(_ int) error {
		attempts++
		return errors.New("not yet")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithFixedBackoff(ctx, operation, WithMaxAttempts(10), WithInterval(time.Hour))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt before cancellation, got: %d", attempts)
	}
}

func TestFatal_NilPassthrough(t *testing.T) {
	t.Parallel()
	if Fatal(nil) != nil {
		t.Error("Fatal(nil) should return nil")
	}
}

func TestIsFatal_WrappedError(t *testing.T) {
	t.Parallel()
	err := Fatal(errors.New("inner"))
	wrapped := errors.Join(errors.New("outer"), err)

	if !IsFatal(wrapped) {
		t.Error("Expected IsFatal to see through wrapping")
	}
	if IsFatal(errors.New("plain")) {
		t.Error("Plain error must not be fatal")
	}
}
