// Package speechtotext defines the contract the engine consumes speech
// recognizers through: per-listen options, result callbacks, and the error
// taxonomy that drives the capture restart policy.
package speechtotext

import (
	"errors"

	"github.com/ariavoice/aria-core/core/audio"
)

// ErrAlreadyListening is returned by Listen when a session is already
// running. Callers racing a restart are expected to treat it as a no-op.
var ErrAlreadyListening = errors.New("recognizer is already listening")

// ErrorKind classifies recognizer failures for the restart policy.
type ErrorKind string

const (
	// ErrorKindNoSpeech means the listening window closed without speech.
	ErrorKindNoSpeech ErrorKind = "no-speech"
	// ErrorKindAudioCapture means the audio source glitched mid-session.
	ErrorKindAudioCapture ErrorKind = "audio-capture"
	// ErrorKindNetwork means the connection to the recognition service broke.
	ErrorKindNetwork ErrorKind = "network"
	// ErrorKindNotSupported means recognition is unavailable in this runtime.
	ErrorKindNotSupported ErrorKind = "not-supported"
)

// Transient reports whether the failure is expected during normal use and
// recovery can be left to the end-of-session auto-restart.
func (k ErrorKind) Transient() bool {
	return k == ErrorKindNoSpeech || k == ErrorKindAudioCapture
}

type ListenOptions struct {
	// Locale pins the recognition language. Empty requests broad matching so
	// phrases in any supported language can be caught.
	Locale string
	// InterimResults requests partial transcripts while speech is ongoing.
	InterimResults bool

	StartedCallback func()
	// ResultCallback receives transcripts; final is set once the service is
	// confident no more words will be appended to the utterance.
	ResultCallback func(transcript string, final bool)
	ErrorCallback  func(kind ErrorKind, err error)
	// EndedCallback fires when the listening session is over, whatever the
	// reason. It is the anchor for the engine's auto-restart policy.
	EndedCallback func()

	EncodingInfo audio.EncodingInfo
}

type ListenOption func(*ListenOptions)

func WithLocale(locale string) ListenOption {
	return func(o *ListenOptions) { o.Locale = locale }
}

func WithInterimResults(enabled bool) ListenOption {
	return func(o *ListenOptions) { o.InterimResults = enabled }
}

func WithStartedCallback(callback func()) ListenOption {
	return func(o *ListenOptions) { o.StartedCallback = callback }
}

func WithResultCallback(callback func(transcript string, final bool)) ListenOption {
	return func(o *ListenOptions) { o.ResultCallback = callback }
}

func WithErrorCallback(callback func(kind ErrorKind, err error)) ListenOption {
	return func(o *ListenOptions) { o.ErrorCallback = callback }
}

func WithEndedCallback(callback func()) ListenOption {
	return func(o *ListenOptions) { o.EndedCallback = callback }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) ListenOption {
	return func(o *ListenOptions) { o.EncodingInfo = encodingInfo }
}
