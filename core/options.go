package orchestration

import (
	"context"
	"time"

	"github.com/ariavoice/aria-core/core/conversations"
	"github.com/ariavoice/aria-core/core/query"
	"github.com/ariavoice/aria-core/core/speechtotext"
	"github.com/ariavoice/aria-core/core/texttospeech"
)

type EngineOption func(*Engine)

// SpeechRecognizer is the speech-to-text collaborator. Listen opens a single
// listening session that ends on its own after a pause in speech; it returns
// speechtotext.ErrAlreadyListening when a session is already running.
type SpeechRecognizer interface {
	Listen(ctx context.Context, opts ...speechtotext.ListenOption) error
	Stop(ctx context.Context) error
}

func WithRecognizer(client SpeechRecognizer) EngineOption {
	return func(e *Engine) { e.capture.set(client) }
}

// SpeechSynthesizer is the text-to-speech collaborator. It may be entirely
// unavailable in a given runtime; the engine then degrades to silent
// completion.
type SpeechSynthesizer interface {
	Voices(ctx context.Context) ([]texttospeech.Voice, error)
	Speak(ctx context.Context, text string, opts ...texttospeech.SpeakOption) error
	Cancel() error
}

func WithSynthesizer(client SpeechSynthesizer) EngineOption {
	return func(e *Engine) { e.playback.set(client) }
}

func WithQueryClient(client query.Client) EngineOption {
	return func(e *Engine) { e.dispatcher = newQueryDispatcher(client) }
}

// WithIdleTimeout overrides how long the assistant waits for new input after
// a playback completes before ending the session.
func WithIdleTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) {
		if timeout > 0 {
			e.idleTimeout = timeout
		}
	}
}

// WithPrompts replaces the built-in prompt sets, e.g. with an externally
// localized string table.
func WithPrompts(prompts Prompts) EngineOption {
	return func(e *Engine) {
		if prompts != nil {
			e.prompts = prompts
		}
	}
}

type engineCallbacks struct {
	onPhaseChanged      func(Phase)
	onStatusChanged     func(Status)
	onMessage           func(conversations.Message)
	onInterimTranscript func(string)
}

// WithPhaseChangedCallback observes phase transitions. Callbacks run on the
// engine loop and must not block.
func WithPhaseChangedCallback(callback func(Phase)) EngineOption {
	return func(e *Engine) { e.callbacks.onPhaseChanged = callback }
}

// WithStatusChangedCallback observes status transitions.
func WithStatusChangedCallback(callback func(Status)) EngineOption {
	return func(e *Engine) { e.callbacks.onStatusChanged = callback }
}

// WithMessageCallback observes every message as it is logged.
func WithMessageCallback(callback func(conversations.Message)) EngineOption {
	return func(e *Engine) { e.callbacks.onMessage = callback }
}

// WithInterimTranscriptCallback observes partial transcripts of ongoing
// speech, e.g. for live captions.
func WithInterimTranscriptCallback(callback func(string)) EngineOption {
	return func(e *Engine) { e.callbacks.onInterimTranscript = callback }
}
