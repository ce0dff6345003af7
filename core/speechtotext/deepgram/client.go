// Package deepgram implements the speech recognizer on Deepgram's live
// listen API. The websocket is dialed directly; only the SDK's response
// types are used for message parsing.
package deepgram

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TranscriptionClient is a speech recognizer backed by one Deepgram listen
// stream per listening session. Sessions are non-continuous: the stream is
// closed after the first finished utterance, and the engine decides whether
// to open the next one.
type TranscriptionClient struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	// lastAudioTs is when audio was last forwarded, used to pace keepalives
	// while the microphone is silent or disconnected.
	lastAudioTs time.Time

	// accumulatedTranscript collects the finalized segments of the utterance
	// in progress.
	accumulatedTranscript string
	// sawSpeech is set once any transcript text arrived in this session, so
	// an empty session can be reported as a no-speech error.
	sawSpeech bool
}

func NewTranscriptionClient() *TranscriptionClient {
	return &TranscriptionClient{}
}
