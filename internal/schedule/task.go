package schedule

import (
	"sync"
	"time"
)

// Task runs a function on a fixed interval in its own goroutine until the
// function returns false or Stop is called.
type Task struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// MinInterval is the shortest interval Every will tick at.
const MinInterval = time.Millisecond

// Every starts a task that calls fn once per interval. tick counts from 1.
// Intervals below MinInterval are raised to it. fn must not call Stop on its
// own task.
func Every(interval time.Duration, fn func(tick int) bool) *Task {
	if interval < MinInterval {
		interval = MinInterval
	}
	t := &Task{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for tick := 1; ; tick++ {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
			}

			// Stop wins over a tick that fired at the same time.
			select {
			case <-t.stop:
				return
			default:
			}

			if !fn(tick) {
				return
			}
		}
	}()

	return t
}

// Stop cancels the task and waits for its goroutine to exit. Safe to call
// more than once and after the task has finished on its own.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}

// Done is closed once the task goroutine has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
