package engine

import "time"

// Scheduler defers a function call. The returned cancel stops a task that
// has not fired yet; tasks that already fired are additionally fenced by the
// engine's generation counter, so cancellation is deterministic either way.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

type realScheduler struct{}

// NewScheduler returns the wall-clock scheduler used outside of tests.
func NewScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
