package sim

import "context"

type deferredTask struct {
	owner context.Context
	run   func()
}

// Scheduler is the frame scheduler behind every "await one scheduling
// step": tasks deferred during a tick run at the start of the next one.
// Everything happens on the simulation goroutine; there is no locking.
type Scheduler struct {
	queue []deferredTask
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Defer queues fn for the next drain. The owner scope is checked at run
// time, so a task whose unit died in the meantime is silently skipped.
func (s *Scheduler) Defer(owner context.Context, fn func()) {
	if s == nil || fn == nil {
		return
	}
	s.queue = append(s.queue, deferredTask{owner: owner, run: fn})
}

// Drain runs the queued tasks in submission order. Tasks deferred while
// draining land in the next batch, which is what gives deferred work its
// one-tick suspension window.
func (s *Scheduler) Drain() {
	if s == nil || len(s.queue) == 0 {
		return
	}
	pending := s.queue
	s.queue = nil
	for _, task := range pending {
		if task.owner != nil && task.owner.Err() != nil {
			continue
		}
		task.run()
	}
}

// Pending reports the number of queued tasks.
func (s *Scheduler) Pending() int {
	if s == nil {
		return 0
	}
	return len(s.queue)
}
