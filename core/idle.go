package orchestration

import (
	"time"

	"github.com/ariavoice/aria-core/core/events"
)

// inactivitySupervisor owns the single idle timer that ends a session left
// alone. Arm and Cancel are only called from the engine loop; the timer
// callback runs on its own goroutine but does nothing except post an event,
// and the generation counter lets the loop discard a firing that raced its
// own cancellation.
type inactivitySupervisor struct {
	timer      *time.Timer
	generation uint64

	post func(events.Event)
}

func newInactivitySupervisor(post func(events.Event)) *inactivitySupervisor {
	return &inactivitySupervisor{post: post}
}

// Arm schedules the idle timer, cancelling any timer already armed so at most
// one is ever pending.
func (s *inactivitySupervisor) Arm(duration time.Duration) {
	s.Cancel()

	generation := s.generation
	s.timer = time.AfterFunc(duration, func() {
		s.post(events.NewIdleTimeout(generation))
	})
}

// Cancel stops any armed timer. It is idempotent.
func (s *inactivitySupervisor) Cancel() {
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Current reports whether generation identifies the armed timer.
func (s *inactivitySupervisor) Current(generation uint64) bool {
	return s.timer != nil && generation == s.generation
}
