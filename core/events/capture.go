package events

import "github.com/ariavoice/aria-core/core/speechtotext"

const (
	// KindCaptureStarted identifies a successfully opened listening session.
	KindCaptureStarted Kind = "capture.started"
	// KindCaptureEnded identifies the end of a listening session, whatever
	// the reason. It anchors the auto-restart policy.
	KindCaptureEnded Kind = "capture.ended"
	// KindCaptureFailed identifies a recognizer failure.
	KindCaptureFailed Kind = "capture.failed"
	// KindTranscriptInterim identifies a partial transcript of ongoing speech.
	KindTranscriptInterim Kind = "capture.transcript_interim"
	// KindTranscriptFinal identifies a committed transcript of one utterance.
	KindTranscriptFinal Kind = "capture.transcript_final"
)

// CaptureStarted marks that the recognizer began listening.
type CaptureStarted struct{ Base }

// NewCaptureStarted creates a capture started event.
func NewCaptureStarted() CaptureStarted {
	return CaptureStarted{Base: NewBase(KindCaptureStarted)}
}

// CaptureEnded marks that the listening session is over.
type CaptureEnded struct{ Base }

// NewCaptureEnded creates a capture ended event.
func NewCaptureEnded() CaptureEnded {
	return CaptureEnded{Base: NewBase(KindCaptureEnded)}
}

// CaptureFailed carries a classified recognizer failure.
type CaptureFailed struct {
	Base
	ErrorKind speechtotext.ErrorKind
	Err       error
}

// NewCaptureFailed creates a capture failed event.
func NewCaptureFailed(kind speechtotext.ErrorKind, err error) CaptureFailed {
	return CaptureFailed{Base: NewBase(KindCaptureFailed), ErrorKind: kind, Err: err}
}

// TranscriptInterim carries a partial transcript of speech still in progress.
type TranscriptInterim struct {
	Base
	Transcript string
}

// NewTranscriptInterim creates an interim transcript event.
func NewTranscriptInterim(transcript string) TranscriptInterim {
	return TranscriptInterim{Base: NewBase(KindTranscriptInterim), Transcript: transcript}
}

// TranscriptFinal carries a committed transcript of one finished utterance.
type TranscriptFinal struct {
	Base
	Transcript string
}

// NewTranscriptFinal creates a final transcript event.
func NewTranscriptFinal(transcript string) TranscriptFinal {
	return TranscriptFinal{Base: NewBase(KindTranscriptFinal), Transcript: transcript}
}
