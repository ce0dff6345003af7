package events

const (
	// KindStartRequested identifies the initial user gesture that opens the
	// conversation.
	KindStartRequested Kind = "session.start_requested"
	// KindCaptureToggleRequested identifies the user-facing mic control.
	KindCaptureToggleRequested Kind = "session.capture_toggle_requested"
	// KindTerminateRequested identifies an explicit request to end the
	// session.
	KindTerminateRequested Kind = "session.terminate_requested"
	// KindIdleTimeout identifies an inactivity timer firing.
	KindIdleTimeout Kind = "session.idle_timeout"
)

// StartRequested marks the user's request to start the conversation.
type StartRequested struct{ Base }

// NewStartRequested creates a start requested event.
func NewStartRequested() StartRequested {
	return StartRequested{Base: NewBase(KindStartRequested)}
}

// CaptureToggleRequested marks a press of the mic control.
type CaptureToggleRequested struct{ Base }

// NewCaptureToggleRequested creates a capture toggle event.
func NewCaptureToggleRequested() CaptureToggleRequested {
	return CaptureToggleRequested{Base: NewBase(KindCaptureToggleRequested)}
}

// TerminateRequested marks an explicit request to end the session.
type TerminateRequested struct{ Base }

// NewTerminateRequested creates a terminate requested event.
func NewTerminateRequested() TerminateRequested {
	return TerminateRequested{Base: NewBase(KindTerminateRequested)}
}

// IdleTimeout marks an inactivity timer firing. Generation ties the firing to
// the arming that scheduled it so a timer racing its own cancellation is
// discarded on the loop.
type IdleTimeout struct {
	Base
	Generation uint64
}

// NewIdleTimeout creates an idle timeout event.
func NewIdleTimeout(generation uint64) IdleTimeout {
	return IdleTimeout{Base: NewBase(KindIdleTimeout), Generation: generation}
}
