package orchestration

import "github.com/google/uuid"

// session carries the mutable cross-cutting state of one conversation. It is
// owned by the engine loop goroutine; no other goroutine touches it.
type session struct {
	// language is the current dialogue language code.
	language string
	// started is set once the user has opened the conversation; repeated
	// start requests are ignored.
	started bool

	// deliberateStop suppresses the capture auto-restart for stops the engine
	// (or the user) asked for. Cleared by every successful capture start.
	deliberateStop bool
	// captureLocale is the locale the current/next listening session uses.
	// Empty means broad matching, as during language selection.
	captureLocale string
	// lastTranscript is the previous final transcript of the current
	// listening session, used to drop duplicate finals some recognizers emit.
	lastTranscript string

	// utterance identifies the currently playing utterance. Completion events
	// carrying any other token are stale and discarded. Zero when nothing is
	// playing.
	utterance uuid.UUID
}

// speaking reports whether an utterance is currently live.
func (s *session) speaking() bool {
	return s.utterance != uuid.Nil
}
