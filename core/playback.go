package orchestration

import (
	"context"
	"errors"
	"strings"

	"github.com/ariavoice/aria-core/core/events"
	"github.com/ariavoice/aria-core/core/texttospeech"
	"github.com/google/uuid"
)

// markupStripper removes markup emphasis characters before text is handed to
// the synthesizer. The conversation log keeps the original text.
var markupStripper = strings.NewReplacer("*", "", "_", "", "`", "", "#", "")

// speechPlayback is the facade in front of the configured speech synthesizer.
// It guarantees at most one live utterance: starting a new one cancels any
// pending one, and each utterance carries a fresh identity token so the loop
// can discard completions of superseded utterances.
type speechPlayback struct {
	client SpeechSynthesizer

	post func(events.Event)

	// voices caches the synthesizer's voice list once loaded. Voice lists may
	// arrive asynchronously on the service side, so loading is retried until
	// it succeeds.
	voices       []texttospeech.Voice
	voicesLoaded bool
}

func newSpeechPlayback(post func(events.Event)) *speechPlayback {
	return &speechPlayback{post: post}
}

func (p *speechPlayback) set(client SpeechSynthesizer) {
	if p != nil {
		p.client = client
		p.voices = nil
		p.voicesLoaded = false
	}
}

func (p *speechPlayback) configured() bool {
	return p != nil && p.client != nil
}

// speak starts a new utterance and returns its identity token. It never
// blocks the dialogue loop: when synthesis is unavailable or fails to start,
// the completion event is posted immediately so the caller's flow continues
// in degraded mode.
func (p *speechPlayback) speak(ctx context.Context, text, locale string) uuid.UUID {
	token := uuid.New()

	if !p.configured() {
		p.post(events.NewPlaybackEnded(token, nil))
		return token
	}

	if err := p.client.Cancel(); err != nil {
		logger.Warn("Failed to cancel previous utterance", "error", err)
	}

	err := p.client.Speak(ctx, markupStripper.Replace(text),
		texttospeech.WithVoice(p.resolveVoice(ctx, locale)),
		texttospeech.WithCompletedCallback(func() {
			p.post(events.NewPlaybackEnded(token, nil))
		}),
		texttospeech.WithErrorCallback(func(err error) {
			p.post(events.NewPlaybackEnded(token, err))
		}),
	)
	if err != nil {
		if errors.Is(err, texttospeech.ErrUnavailable) {
			err = nil
		}
		p.post(events.NewPlaybackEnded(token, err))
	}

	return token
}

func (p *speechPlayback) cancel() {
	if !p.configured() {
		return
	}

	if err := p.client.Cancel(); err != nil {
		logger.Warn("Failed to cancel utterance", "error", err)
	}
}

// resolveVoice picks a voice for the locale: exact match first, then any
// voice of the same language family, then the service default.
func (p *speechPlayback) resolveVoice(ctx context.Context, locale string) texttospeech.Voice {
	voices := p.loadVoices(ctx)

	for _, voice := range voices {
		if strings.EqualFold(voice.Locale, locale) {
			return voice
		}
	}

	if locale != "" {
		family, _, _ := strings.Cut(locale, "-")
		prefix := strings.ToLower(family)
		for _, voice := range voices {
			if strings.HasPrefix(strings.ToLower(voice.Locale), prefix) {
				return voice
			}
		}
	}

	logger.Warn("No voice matches locale, using service default", "locale", locale)
	for _, voice := range voices {
		if voice.Default {
			return voice
		}
	}
	return texttospeech.Voice{}
}

func (p *speechPlayback) loadVoices(ctx context.Context) []texttospeech.Voice {
	if p.voicesLoaded {
		return p.voices
	}

	voices, err := p.client.Voices(ctx)
	if err != nil {
		logger.Warn("Failed to load synthesizer voices", "error", err)
		return nil
	}

	p.voices = voices
	p.voicesLoaded = true
	return p.voices
}

func (e *Engine) handlePlaybackEnded(event events.PlaybackEnded) {
	if event.Token != e.session.utterance {
		// Completion of an utterance that has since been superseded.
		return
	}
	e.session.utterance = uuid.Nil

	if event.Err != nil {
		logger.Warn("Utterance playback failed", "error", event.Err)
	}

	switch e.Phase() {
	case PhaseWelcoming:
		e.setPhase(PhaseLanguageSelect)
		e.setStatus(StatusIdle)
		e.startCapture("")
	case PhaseLanguageSelect, PhaseChatting:
		e.setStatus(StatusIdle)
		e.idle.Arm(e.idleTimeout)
		e.startCapture(e.captureLocaleForPhase())
	case PhaseEnded:
		e.setStatus(StatusIdle)
	}
}

// speak plays text in the session's current language and records the new
// utterance token. Capture is stopped first so the assistant never listens to
// itself.
func (e *Engine) speak(text string) {
	if e.Status() == StatusListening {
		e.stopCapture()
		e.setStatus(StatusIdle)
	}

	locale := e.resolveLanguage().SpeechLocale
	e.session.utterance = e.playback.speak(e.baseContext, text, locale)
	e.setStatus(StatusSpeaking)
}
