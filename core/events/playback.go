package events

import "github.com/google/uuid"

const (
	// KindPlaybackEnded identifies completion (or failure) of one utterance.
	KindPlaybackEnded Kind = "playback.ended"
)

// PlaybackEnded marks that the utterance identified by Token is no longer
// playing. Err is set when the utterance failed or was cancelled; the engine
// treats either outcome as completion and only honours the event if Token
// still matches the current utterance.
type PlaybackEnded struct {
	Base
	Token uuid.UUID
	Err   error
}

// NewPlaybackEnded creates a playback ended event.
func NewPlaybackEnded(token uuid.UUID, err error) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), Token: token, Err: err}
}
