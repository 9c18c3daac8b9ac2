package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

func TestMapPreservesOrder(t *testing.T) {
	items := []int{5, 3, 8, 1, 9, 2}

	results := Map(context.Background(), items, 3, func(_ context.Context, _ int, n int) (int, error) {
		return n * 2, nil
	}, nil)

	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("results[%d].Index = %d", i, r.Index)
		}
		if r.Value != items[i]*2 {
			t.Errorf("results[%d].Value = %d, want %d", i, r.Value, items[i]*2)
		}
	}
}

func TestMapIsolatesFailures(t *testing.T) {
	items := []string{"ok", "bad", "ok"}

	results := Map(context.Background(), items, 2, func(_ context.Context, _ int, s string) (string, error) {
		if s == "bad" {
			return "", errors.New("boom")
		}
		return s, nil
	}, nil)

	if results[0].Err != nil || results[2].Err != nil {
		t.Error("healthy items should not fail")
	}
	if results[1].Err == nil {
		t.Error("failing item should carry its error")
	}
	if got := Errors(results); len(got) != 1 {
		t.Errorf("Errors() returned %d errors, want 1", len(got))
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	const workers = 2
	var active, peak int32

	items := make([]int, 16)
	Map(context.Background(), items, workers, func(_ context.Context, _ int, _ int) (int, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&active, -1)
		return 0, nil
	}, nil)

	if peak > workers {
		t.Errorf("peak concurrency %d exceeds %d workers", peak, workers)
	}
}

func TestMapReportsProgress(t *testing.T) {
	items := []int{1, 2, 3, 4}
	var calls int32

	Map(context.Background(), items, 2, func(_ context.Context, _ int, n int) (int, error) {
		return n, nil
	}, func(completed, total int) {
		atomic.AddInt32(&calls, 1)
		if total != len(items) {
			t.Errorf("total = %d, want %d", total, len(items))
		}
	})

	if int(calls) != len(items) {
		t.Errorf("progress called %d times, want %d", calls, len(items))
	}
}

func TestMapCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []int{1, 2, 3}
	results := Map(ctx, items, 1, func(_ context.Context, _ int, n int) (int, error) {
		return 0, fmt.Errorf("should not run item %d", n)
	}, nil)

	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("results[%d].Err = %v, want context.Canceled", i, r.Err)
		}
	}
}

func TestMapEmptyInput(t *testing.T) {
	results := Map(context.Background(), nil, 4, func(_ context.Context, _ int, n int) (int, error) {
		return n, nil
	}, nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
