package sim

import (
	"context"
	"testing"
)

func TestSchedulerDrainRunsInOrder(t *testing.T) {
	scheduler := NewScheduler()
	var order []int
	scheduler.Defer(context.Background(), func() { order = append(order, 1) })
	scheduler.Defer(context.Background(), func() { order = append(order, 2) })

	if scheduler.Pending() != 2 {
		t.Fatalf("Pending = %d, want 2", scheduler.Pending())
	}
	scheduler.Drain()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v", order)
	}
	if scheduler.Pending() != 0 {
		t.Fatalf("Pending after drain = %d", scheduler.Pending())
	}
}

func TestSchedulerRedeferralWaitsForNextDrain(t *testing.T) {
	scheduler := NewScheduler()
	var runs []string
	scheduler.Defer(context.Background(), func() {
		runs = append(runs, "first")
		scheduler.Defer(context.Background(), func() {
			runs = append(runs, "second")
		})
	})

	scheduler.Drain()
	if len(runs) != 1 {
		t.Fatalf("runs after first drain = %v, re-deferred task leaked into the same batch", runs)
	}
	if scheduler.Pending() != 1 {
		t.Fatalf("Pending = %d, want the re-deferred task queued", scheduler.Pending())
	}
	scheduler.Drain()
	if len(runs) != 2 || runs[1] != "second" {
		t.Fatalf("runs = %v", runs)
	}
}

func TestSchedulerSkipsCanceledOwners(t *testing.T) {
	scheduler := NewScheduler()
	owner, cancel := context.WithCancel(context.Background())
	ran := false
	scheduler.Defer(owner, func() { ran = true })
	cancel()
	scheduler.Drain()
	if ran {
		t.Fatal("task with canceled owner ran")
	}
}

func TestSchedulerNilSafety(t *testing.T) {
	var scheduler *Scheduler
	scheduler.Defer(context.Background(), func() {})
	scheduler.Drain()
	if scheduler.Pending() != 0 {
		t.Fatal("nil scheduler reported pending work")
	}

	live := NewScheduler()
	live.Defer(context.Background(), nil)
	if live.Pending() != 0 {
		t.Fatal("nil task was queued")
	}
}
