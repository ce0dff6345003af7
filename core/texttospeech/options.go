// Package texttospeech defines the contract the engine consumes speech
// synthesizers through.
package texttospeech

import (
	"errors"

	"github.com/ariavoice/aria-core/core/audio"
)

// ErrUnavailable is returned when synthesis is not usable in this runtime.
// The engine treats it as degraded mode and completes utterances immediately.
var ErrUnavailable = errors.New("speech synthesis is unavailable")

// Voice describes one synthesis voice exposed by a service. Voice lists may
// be loaded asynchronously by the underlying service; Voices() blocks until
// the list is known.
type Voice struct {
	// Name identifies the voice to the service (model name, voice URI, ...).
	Name string
	// Locale is the language variant the voice speaks.
	Locale string
	// Default marks the voice the service falls back to.
	Default bool
}

type SpeakOptions struct {
	Voice Voice

	// AudioCallback receives synthesized audio as it is produced.
	AudioCallback func(audio []byte)
	// CompletedCallback fires once the utterance has been fully delivered.
	CompletedCallback func()
	// ErrorCallback fires when synthesis fails or is cancelled mid-utterance.
	ErrorCallback func(error)

	EncodingInfo audio.EncodingInfo
}

type SpeakOption func(*SpeakOptions)

func WithVoice(voice Voice) SpeakOption {
	return func(o *SpeakOptions) { o.Voice = voice }
}

func WithAudioCallback(callback func(audio []byte)) SpeakOption {
	return func(o *SpeakOptions) { o.AudioCallback = callback }
}

func WithCompletedCallback(callback func()) SpeakOption {
	return func(o *SpeakOptions) { o.CompletedCallback = callback }
}

func WithErrorCallback(callback func(error)) SpeakOption {
	return func(o *SpeakOptions) { o.ErrorCallback = callback }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SpeakOption {
	return func(o *SpeakOptions) { o.EncodingInfo = encodingInfo }
}
