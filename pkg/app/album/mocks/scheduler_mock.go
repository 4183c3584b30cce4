package mocks

import (
	"sync"
	"time"

	"github.com/NeuralTrust/TrustRelay/pkg/app/album"
)

// Timer is a manually fired album.Timer.
type Timer struct {
	Delay time.Duration

	mu      sync.Mutex
	f       func()
	stopped bool
	fired   bool
}

func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (t *Timer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Fire runs the callback unless the timer was stopped. It reports whether
// the callback ran.
func (t *Timer) Fire() bool {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return false
	}
	t.fired = true
	f := t.f
	t.mu.Unlock()

	f()
	return true
}

// ForceFire runs the callback even if the timer was stopped, the way a
// runtime timer that already expired would.
func (t *Timer) ForceFire() {
	t.mu.Lock()
	t.fired = true
	f := t.f
	t.mu.Unlock()

	f()
}

// Scheduler records timers instead of running them.
type Scheduler struct {
	mu     sync.Mutex
	timers []*Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) AfterFunc(d time.Duration, f func()) album.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &Timer{Delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *Scheduler) Timers() []*Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Timer, len(s.timers))
	copy(out, s.timers)
	return out
}

func (s *Scheduler) Last() *Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

// FireAll fires every timer that is neither stopped nor fired and returns
// how many callbacks ran.
func (s *Scheduler) FireAll() int {
	n := 0
	for _, t := range s.Timers() {
		if t.Fire() {
			n++
		}
	}
	return n
}
