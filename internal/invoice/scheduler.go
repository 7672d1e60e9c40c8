package invoice

import (
	"context"
	"sync"
	"time"
)

// TickFunc runs one poll. guard must wrap every state change; it returns
// false once the task has been cancelled. Returning true stops the task.
type TickFunc func(ctx context.Context, guard GuardFunc) bool

// GuardFunc runs act unless the task was cancelled and reports whether it ran.
type GuardFunc func(act func()) bool

// Scheduler owns one recurring task per invoice id. Each task carries its own
// cancellation token; Register and Deregister are the only ways to touch it.
type Scheduler struct {
	interval time.Duration
	onChange func(active int)

	mu    sync.Mutex
	tasks map[string]*task
	wg    sync.WaitGroup
}

type task struct {
	ctx    context.Context
	cancel context.CancelFunc

	// held while a tick changes state; Deregister takes it after cancelling
	// so no tick can act once Deregister returns
	actMu sync.Mutex
}

// NewScheduler creates a scheduler ticking every interval. onChange, if set,
// receives the number of registered tasks after every change.
func NewScheduler(interval time.Duration, onChange func(active int)) *Scheduler {
	return &Scheduler{
		interval: interval,
		onChange: onChange,
		tasks:    make(map[string]*task),
	}
}

// Register starts polling id, replacing any task already registered for it.
func (s *Scheduler) Register(parent context.Context, id string, fn TickFunc) {
	ctx, cancel := context.WithCancel(parent)
	t := &task{ctx: ctx, cancel: cancel}

	s.mu.Lock()
	old := s.tasks[id]
	s.tasks[id] = t
	n := len(s.tasks)
	s.wg.Add(1)
	s.mu.Unlock()

	if old != nil {
		old.stop()
	}
	s.changed(n)

	go s.run(id, t, fn)
}

// Deregister cancels the task for id. After it returns no tick of that task
// will change state. Unknown ids are a no-op.
func (s *Scheduler) Deregister(id string) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if ok {
		delete(s.tasks, id)
	}
	n := len(s.tasks)
	s.mu.Unlock()

	if !ok {
		return
	}
	t.stop()
	s.changed(n)
}

// Guard returns the guard of the task registered for id, or a pass-through
// guard when nothing is registered.
func (s *Scheduler) Guard(id string) GuardFunc {
	s.mu.Lock()
	t, ok := s.tasks[id]
	s.mu.Unlock()

	if !ok {
		return func(act func()) bool {
			act()
			return true
		}
	}
	return t.guard
}

// Registered reports whether id has a live task.
func (s *Scheduler) Registered(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	return ok
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels every task and waits for their goroutines to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = make(map[string]*task)
	s.mu.Unlock()

	for _, t := range tasks {
		t.stop()
	}
	s.changed(0)
	s.wg.Wait()
}

func (s *Scheduler) run(id string, t *task, fn TickFunc) {
	defer s.wg.Done()
	defer s.remove(id, t)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			if t.ctx.Err() != nil {
				return
			}
			if fn(t.ctx, t.guard) {
				return
			}
		}
	}
}

// remove drops id only if it still maps to t, so a finished task never
// evicts the task that replaced it.
func (s *Scheduler) remove(id string, t *task) {
	t.cancel()

	s.mu.Lock()
	current, ok := s.tasks[id]
	if !ok || current != t {
		s.mu.Unlock()
		return
	}
	delete(s.tasks, id)
	n := len(s.tasks)
	s.mu.Unlock()

	s.changed(n)
}

func (s *Scheduler) changed(n int) {
	if s.onChange != nil {
		s.onChange(n)
	}
}

func (t *task) guard(act func()) bool {
	t.actMu.Lock()
	defer t.actMu.Unlock()

	if t.ctx.Err() != nil {
		return false
	}
	act()
	return true
}

// stop cancels the token and waits out any tick that is mid-act.
func (t *task) stop() {
	t.cancel()
	t.actMu.Lock()
	t.actMu.Unlock()
}
