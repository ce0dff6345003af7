// Package deepgram implements the speech synthesizer on Deepgram's streaming
// speak API.
package deepgram

import (
	"sync"

	"github.com/ariavoice/aria-core/core/audio"
	"github.com/gorilla/websocket"
)

// SpeechClient synthesizes one utterance per websocket stream. Starting a new
// utterance while one is live closes the previous stream first.
type SpeechClient struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	options clientOptions
}

type clientOptions struct {
	// audioSink receives synthesized audio chunks, e.g. a speaker buffer.
	audioSink func(audio []byte)
	// sinkClear drops buffered audio when an utterance is cancelled.
	sinkClear func()

	encodingInfo audio.EncodingInfo
}

type ClientOption func(*clientOptions)

// WithAudioSink routes synthesized audio to sink as it is produced.
func WithAudioSink(sink func(audio []byte)) ClientOption {
	return func(o *clientOptions) { o.audioSink = sink }
}

// WithSinkClear registers how to drop already-buffered audio on cancellation.
func WithSinkClear(clear func()) ClientOption {
	return func(o *clientOptions) { o.sinkClear = clear }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) ClientOption {
	return func(o *clientOptions) {
		if !encodingInfo.IsZero() {
			o.encodingInfo = encodingInfo
		}
	}
}

func NewSpeechClient(opts ...ClientOption) *SpeechClient {
	options := clientOptions{encodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}

	return &SpeechClient{options: options}
}
