package client

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCollapsesBurst(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Do(func() {
			calls.Add(1)
			last.Store(n)
		})
	}

	time.Sleep(200 * time.Millisecond)
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
	if last.Load() != 5 {
		t.Fatalf("expected last scheduled call, got %d", last.Load())
	}
}

func TestDebouncerSeparateWindows(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	d.Do(func() { calls.Add(1) })
	time.Sleep(100 * time.Millisecond)
	d.Do(func() { calls.Add(1) })
	time.Sleep(100 * time.Millisecond)

	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls across separate windows, got %d", calls.Load())
	}
}

func TestDebouncerStop(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	d.Do(func() { calls.Add(1) })
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("expected stop to cancel pending call, got %d", calls.Load())
	}
}

func TestNewDebouncerDefaultDelay(t *testing.T) {
	t.Parallel()

	if d := NewDebouncer(0); d.delay != 500*time.Millisecond {
		t.Fatalf("expected 500ms default, got %s", d.delay)
	}
	if d := NewDebouncer(-time.Second); d.delay != 500*time.Millisecond {
		t.Fatalf("expected 500ms default, got %s", d.delay)
	}
}
