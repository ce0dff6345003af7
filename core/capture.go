package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariavoice/aria-core/core/events"
	"github.com/ariavoice/aria-core/core/speechtotext"
)

// speechCapture is the facade in front of the configured speech recognizer.
// It translates recognizer callbacks into loop events; the restart and dedup
// policy itself lives in the engine's capture handlers below.
type speechCapture struct {
	client SpeechRecognizer

	post func(events.Event)
}

func newSpeechCapture(post func(events.Event)) *speechCapture {
	return &speechCapture{post: post}
}

func (c *speechCapture) set(client SpeechRecognizer) {
	if c != nil {
		c.client = client
	}
}

func (c *speechCapture) configured() bool {
	return c != nil && c.client != nil
}

// start opens a listening session in the given locale (empty requests broad
// matching). A recognizer already running is expected under restart races and
// is treated as a no-op.
func (c *speechCapture) start(ctx context.Context, locale string) error {
	if !c.configured() {
		return nil
	}

	err := c.client.Listen(ctx,
		speechtotext.WithLocale(locale),
		speechtotext.WithInterimResults(true),
		speechtotext.WithStartedCallback(func() {
			c.post(events.NewCaptureStarted())
		}),
		speechtotext.WithResultCallback(func(transcript string, final bool) {
			if final {
				c.post(events.NewTranscriptFinal(transcript))
			} else {
				c.post(events.NewTranscriptInterim(transcript))
			}
		}),
		speechtotext.WithErrorCallback(func(kind speechtotext.ErrorKind, err error) {
			c.post(events.NewCaptureFailed(kind, err))
		}),
		speechtotext.WithEndedCallback(func() {
			c.post(events.NewCaptureEnded())
		}),
	)
	if errors.Is(err, speechtotext.ErrAlreadyListening) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to start listening: %w", err)
	}

	return nil
}

func (c *speechCapture) stop(ctx context.Context) error {
	if !c.configured() {
		return nil
	}

	if err := c.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop listening: %w", err)
	}
	return nil
}

// startCapture opens a listening session and remembers the locale so the
// auto-restart reopens the same one.
func (e *Engine) startCapture(locale string) {
	if !e.capture.configured() {
		logger.Warn("No speech recognizer configured, capture unavailable")
		return
	}

	e.session.captureLocale = locale
	if err := e.capture.start(e.baseContext, locale); err != nil {
		logger.Warn("Failed to start speech capture", "error", err)
		if e.Status() == StatusListening {
			e.setStatus(StatusIdle)
		}
	}
}

// stopCapture requests a deliberate stop: the end-of-session event that
// follows must not trigger an auto-restart.
func (e *Engine) stopCapture() {
	e.session.deliberateStop = true
	if err := e.capture.stop(e.baseContext); err != nil {
		logger.Warn("Failed to stop speech capture", "error", err)
	}
}

func (e *Engine) handleCaptureStarted() {
	// Every successful start clears the deliberate-stop marker and the dedup
	// memory of the previous session.
	e.session.deliberateStop = false
	e.session.lastTranscript = ""

	if !e.session.speaking() {
		e.setStatus(StatusListening)
	}
}

func (e *Engine) handleCaptureEnded() {
	if e.session.deliberateStop || e.Phase() == PhaseEnded {
		if e.Status() == StatusListening {
			e.setStatus(StatusIdle)
		}
		return
	}

	// The recognizer stops after every pause in speech; restarting here is
	// what keeps the assistant feeling always-listening.
	e.startCapture(e.session.captureLocale)
}

func (e *Engine) handleCaptureFailed(event events.CaptureFailed) {
	if event.ErrorKind.Transient() {
		// No speech or an audio glitch: the end-of-session event that follows
		// restarts capture on its own.
		return
	}

	logger.Warn("Speech capture failed",
		"kind", string(event.ErrorKind), "error", event.Err)
	e.session.deliberateStop = true
	if e.Status() == StatusListening {
		e.setStatus(StatusIdle)
	}
}

func (e *Engine) handleCaptureToggle() {
	switch e.Status() {
	case StatusListening:
		e.stopCapture()
		e.setStatus(StatusIdle)
	case StatusIdle:
		if phase := e.Phase(); phase != PhaseEnded && phase != PhasePreStart {
			e.startCapture(e.captureLocaleForPhase())
		}
	}
}

// captureLocaleForPhase returns the recognition locale implied by the current
// phase: broad matching while the language is still being chosen, the
// session language's locale afterwards.
func (e *Engine) captureLocaleForPhase() string {
	if e.Phase() == PhaseChatting {
		return e.resolveLanguage().SpeechLocale
	}
	return ""
}
