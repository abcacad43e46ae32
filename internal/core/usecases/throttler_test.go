package usecases

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestThrottler_RunsJobs(t *testing.T) {
	th := NewThrottler(1000)
	defer th.Close()

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		if err := th.Do(context.Background(), func() { ran.Add(1) }); err != nil {
			t.Fatalf("Do returned error: %v", err)
		}
	}
	if got := ran.Load(); got != 5 {
		t.Errorf("expected 5 jobs run, got %d", got)
	}
}

func TestThrottler_PreservesSubmissionOrder(t *testing.T) {
	th := NewThrottler(1000)
	defer th.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	// Submit sequentially so queue order is deterministic, then wait for
	// each synchronous Do to return before submitting the next.
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = th.Do(context.Background(), func() {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			})
		}()
		time.Sleep(5 * time.Millisecond)
	}
	wg.Wait()

	for i, v := range order {
		if v != i {
			t.Fatalf("FIFO order violated at index %d: %v", i, order)
		}
	}
}

func TestThrottler_SpacesDispatches(t *testing.T) {
	th := NewThrottler(20) // 50ms between dispatches
	defer th.Close()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := th.Do(context.Background(), func() {}); err != nil {
			t.Fatalf("Do returned error: %v", err)
		}
	}
	elapsed := time.Since(start)

	// Three jobs require at least two inter-dispatch intervals.
	if elapsed < 90*time.Millisecond {
		t.Errorf("dispatches too fast: %v", elapsed)
	}
}

func TestThrottler_ExpiredContextSkipsJob(t *testing.T) {
	th := NewThrottler(1000)
	defer th.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	err := th.Do(ctx, func() { ran.Store(true) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if ran.Load() {
		t.Error("job ran despite cancelled context")
	}
}

func TestThrottler_CloseRejectsNewJobs(t *testing.T) {
	th := NewThrottler(1000)
	th.Close()

	err := th.Do(context.Background(), func() {})
	if !errors.Is(err, ErrThrottlerClosed) {
		t.Errorf("expected ErrThrottlerClosed, got %v", err)
	}
}

func TestThrottler_CloseIsIdempotent(t *testing.T) {
	th := NewThrottler(1000)
	th.Close()
	th.Close()
}
