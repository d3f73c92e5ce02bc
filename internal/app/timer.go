package app

import (
	"time"

	"quiz-session-service/internal/domain"
)

// Timer is a handle to a pending delayed call.
type Timer interface {
	// Stop prevents the call from running. It reports whether the call was still pending.
	Stop() bool
}

// Scheduler arms delayed calls. The production implementation wraps time.AfterFunc;
// tests swap in a manual scheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler schedules calls on the runtime timer heap.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// armLocked replaces the session's outstanding timer with one that applies the timer
// trigger if the session is still in state expect when it fires. A closed engine
// arms nothing.
func (e *Engine) armLocked(s *Session, d time.Duration, expect domain.SessionState) {
	s.cancelTimerLocked()
	if e.closed.Load() {
		return
	}
	gen := s.timerGen
	id := s.id
	s.timer = e.scheduler.AfterFunc(d, func() {
		e.fire(id, gen, expect)
	})
}

// cancelTimerLocked stops the outstanding timer and invalidates any callback that
// already fired and is waiting for the session lock.
func (s *Session) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
