package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWaitUnlimitedByDefault(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx, "aggregates"); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
}

func TestWaitThrottles(t *testing.T) {
	t.Parallel()

	l := New(Config{RequestsPerSec: 50, Burst: 1})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx, "reference"); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	// Burst of 1 means two waits of ~20ms each.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected throttling, elapsed %v", elapsed)
	}
}

func TestWaitRespectsContext(t *testing.T) {
	t.Parallel()

	l := New(Config{RequestsPerSec: 0.001, Burst: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "news"); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}
	if err := l.Wait(ctx, "news"); err == nil {
		t.Fatal("expected context deadline error on second Wait()")
	}
}

func TestEndpointsAreIndependent(t *testing.T) {
	t.Parallel()

	l := New(Config{RequestsPerSec: 0.001, Burst: 1})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.Wait(ctx, "aggregates"); err != nil {
		t.Fatalf("Wait(aggregates) error = %v", err)
	}
	// A different endpoint gets its own bucket and must not block.
	if err := l.Wait(ctx, "snapshot"); err != nil {
		t.Fatalf("Wait(snapshot) error = %v", err)
	}
}
