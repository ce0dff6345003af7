package orchestration

// Phase is the coarse stage of the conversation lifecycle. Transitions are
// monotonic except PhaseChatting, which loops until PhaseEnded. Nothing
// leaves PhaseEnded.
type Phase string

const (
	PhasePreStart       Phase = "pre-start"
	PhaseWelcoming      Phase = "welcoming"
	PhaseLanguageSelect Phase = "lang-select"
	PhaseChatting       Phase = "chatting"
	PhaseEnded          Phase = "ended"
)

// Status is the assistant's immediate activity within a phase.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusListening Status = "listening"
	StatusThinking  Status = "thinking"
	StatusSpeaking  Status = "speaking"
)

// allowedStatus reports whether status is a legal activity for phase. Phase
// and status are kept as two separate enums, so illegal pairings have to be
// rejected here on every transition rather than by construction.
func allowedStatus(phase Phase, status Status) bool {
	switch phase {
	case PhasePreStart:
		return status == StatusIdle
	case PhaseWelcoming:
		return status == StatusIdle || status == StatusSpeaking
	case PhaseLanguageSelect:
		return status != StatusThinking
	case PhaseChatting:
		return true
	case PhaseEnded:
		// The farewell still plays after the session ends; listening and
		// thinking do not.
		return status == StatusIdle || status == StatusSpeaking
	}
	return false
}
