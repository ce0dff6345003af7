package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ariavoice/aria-core/core/audio"
	"github.com/ariavoice/aria-core/core/speechtotext"
	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
)

// Listen opens one listening session. It returns
// speechtotext.ErrAlreadyListening when a session is already running; callers
// racing a restart treat that as a no-op.
func (s *TranscriptionClient) Listen(ctx context.Context, opts ...speechtotext.ListenOption) error {
	options := &speechtotext.ListenOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(options)
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.connMu.Unlock()
		return speechtotext.ErrAlreadyListening
	}

	conn, err := connectWebsocket(connectionOptions{
		sampleRate:     options.EncodingInfo.SampleRate,
		encoding:       options.EncodingInfo.Format.Name(),
		language:       localeToLanguage(options.Locale),
		interimResults: options.InterimResults,
	})
	if err != nil {
		s.connMu.Unlock()
		if options.ErrorCallback != nil {
			options.ErrorCallback(speechtotext.ErrorKindNetwork, err)
		}
		return fmt.Errorf("failed to open listen websocket: %w", err)
	}

	s.conn = conn
	s.accumulatedTranscript = ""
	s.sawSpeech = false
	s.lastAudioTs = time.Now()
	s.connMu.Unlock()

	if options.StartedCallback != nil {
		options.StartedCallback()
	}

	go s.readAndProcessMessages(ctx, conn, *options)

	return nil
}

// Stop closes the current listen stream, if any. Idempotent.
func (s *TranscriptionClient) Stop(context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return nil
	}

	if err := s.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close listen stream: %w", err)
	}
	return nil
}

// SendAudio forwards captured audio to the live stream. Audio arriving while
// no session is open is dropped.
func (s *TranscriptionClient) SendAudio(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return nil
	}

	s.lastAudioTs = time.Now()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram stream: %w", err)
	}
	return nil
}

type connectionOptions struct {
	sampleRate     int
	encoding       string
	language       string
	interimResults bool
}

func connectWebsocket(options connectionOptions) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenUrl, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", "nova-3")
	queryParams.Set("language", options.language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("endpointing", "300")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("vad_events", "true")
	if options.interimResults {
		queryParams.Set("interim_results", "true")
	}

	listenUrl.RawQuery = queryParams.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(listenUrl.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

// localeToLanguage maps a recognition locale to a Deepgram language tag. An
// empty locale requests multi-language code switching, which is how the
// engine listens while the user has not chosen a language yet.
func localeToLanguage(locale string) string {
	if locale == "" {
		return "multi"
	}
	return locale
}

func (s *TranscriptionClient) readAndProcessMessages(ctx context.Context, conn *websocket.Conn, options speechtotext.ListenOptions) {
	keepAliveCtx, keepAliveCancel := context.WithCancel(ctx)
	defer keepAliveCancel()
	go s.keepAlive(keepAliveCtx)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			normalClose := websocket.IsCloseError(err, websocket.CloseNormalClosure)
			if !normalClose && ctx.Err() == nil {
				log.Println("Failed to read deepgram websocket message", "error", err)
			}

			s.connMu.Lock()
			s.conn = nil
			sawSpeech := s.sawSpeech
			s.connMu.Unlock()
			conn.Close()

			if !normalClose && ctx.Err() == nil && options.ErrorCallback != nil {
				options.ErrorCallback(speechtotext.ErrorKindNetwork, err)
			} else if !sawSpeech && options.ErrorCallback != nil {
				options.ErrorCallback(speechtotext.ErrorKindNoSpeech, nil)
			}

			if options.EndedCallback != nil {
				options.EndedCallback()
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			s.processMessage(msg, options)
		}
	}
}

func (s *TranscriptionClient) processMessage(msg []byte, options speechtotext.ListenOptions) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		log.Println("Failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram message", err)
			return
		}
		if len(msgResp.Channel.Alternatives) == 0 {
			return
		}

		transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		if len(transcript) == 0 {
			return
		}
		s.sawSpeech = true

		if !msgResp.IsFinal {
			if options.InterimResults && options.ResultCallback != nil {
				interim := strings.TrimSpace(s.accumulatedTranscript + " " + transcript)
				options.ResultCallback(interim, false)
			}
			return
		}

		s.accumulatedTranscript = strings.TrimSpace(s.accumulatedTranscript + " " + transcript)
		if msgResp.SpeechFinal {
			s.finishUtterance(options)
		}

	case api.TypeUtteranceEndResponse:
		if s.accumulatedTranscript != "" {
			s.finishUtterance(options)
		}
	}
}

// finishUtterance commits the accumulated transcript and winds the session
// down. Sessions are single-utterance: the stream close that follows is what
// surfaces the end-of-session event.
func (s *TranscriptionClient) finishUtterance(options speechtotext.ListenOptions) {
	transcript := s.accumulatedTranscript
	s.accumulatedTranscript = ""

	if options.ResultCallback != nil && transcript != "" {
		options.ResultCallback(transcript, true)
	}

	if err := s.Stop(context.Background()); err != nil {
		log.Println("Failed to wind down listen stream", "error", err)
	}
}

// keepAlive keeps the stream open while the microphone is silent. Deepgram
// drops connections that stay quiet for too long.
func (s *TranscriptionClient) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.connMu.Lock()
			conn := s.conn
			idle := time.Since(s.lastAudioTs) > 3*time.Second
			if conn != nil && idle {
				if err := conn.WriteJSON(struct {
					Type string `json:"type"`
				}{Type: "KeepAlive"}); err != nil {
					log.Println("Failed to send keepalive to deepgram", "error", err)
				}
			}
			s.connMu.Unlock()
		}
	}
}
