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

	"github.com/ariavoice/aria-core/core/audio"
	"github.com/ariavoice/aria-core/core/texttospeech"
	"github.com/gorilla/websocket"
)

// Speak synthesizes one utterance. Audio chunks go to the configured audio
// sink (and the per-call AudioCallback, when set); the completion callback
// fires once the service has flushed the whole utterance.
func (c *SpeechClient) Speak(ctx context.Context, text string, opts ...texttospeech.SpeakOption) error {
	options := texttospeech.SpeakOptions{EncodingInfo: c.options.encodingInfo}
	for _, opt := range opts {
		opt(&options)
	}

	voice := options.Voice.Name
	if voice == "" {
		voice = defaultVoiceName()
	}

	conn, err := connectWebsocket(voice, options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("failed to open speak websocket: %w", err)
	}

	c.connMu.Lock()
	if c.conn != nil {
		// A previous utterance is still streaming; supersede it.
		c.conn.Close()
	}
	c.conn = conn
	c.connMu.Unlock()

	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "Speak", Text: text}); err != nil {
		c.closeConn(conn)
		return fmt.Errorf("failed to send text to deepgram: %w", err)
	}
	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: "Flush"}); err != nil {
		c.closeConn(conn)
		return fmt.Errorf("failed to flush deepgram speak stream: %w", err)
	}

	go c.processIncomingMessages(ctx, conn, options)

	return nil
}

// Cancel closes the live speak stream, if any, and drops buffered audio.
// Idempotent.
func (c *SpeechClient) Cancel() error {
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if c.options.sinkClear != nil {
		c.options.sinkClear()
	}
	return nil
}

func (c *SpeechClient) closeConn(conn *websocket.Conn) {
	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connMu.Unlock()
	conn.Close()
}

func connectWebsocket(voice string, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", voice)
	urlValues.Set("container", "none")

	conn, _, err := websocket.DefaultDialer.Dial(
		(&url.URL{
			Scheme: "wss",
			Host:   "api.deepgram.com", Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (c *SpeechClient) processIncomingMessages(ctx context.Context, conn *websocket.Conn, options texttospeech.SpeakOptions) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			c.connMu.Lock()
			superseded := c.conn != conn
			if !superseded {
				c.conn = nil
			}
			c.connMu.Unlock()
			conn.Close()

			if !superseded && !websocket.IsCloseError(err, websocket.CloseNormalClosure) &&
				options.ErrorCallback != nil {
				options.ErrorCallback(fmt.Errorf("speak stream failed: %w", err))
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if c.options.audioSink != nil {
				c.options.audioSink(msg)
			}
			if options.AudioCallback != nil {
				options.AudioCallback(msg)
			}
		case websocket.TextMessage:
			var parsedMsg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				log.Println("Failed to unmarshal deepgram speak message", "error", err)
				continue
			}

			if parsedMsg.Type == "Flushed" {
				c.closeConn(conn)
				if options.CompletedCallback != nil {
					options.CompletedCallback()
				}
				return
			}
		}
	}
}

func defaultVoiceName() string {
	for _, voice := range availableVoices {
		if voice.Default {
			return voice.Name
		}
	}
	return availableVoices[0].Name
}
