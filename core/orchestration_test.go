package orchestration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ariavoice/aria-core/core/conversations"
	"github.com/ariavoice/aria-core/core/events"
	"github.com/ariavoice/aria-core/core/query"
	"github.com/ariavoice/aria-core/core/speechtotext"
)

type recognizerStub struct {
	mu        sync.Mutex
	sessions  []speechtotext.ListenOptions
	listening bool
	stops     int
}

func (r *recognizerStub) Listen(_ context.Context, opts ...speechtotext.ListenOption) error {
	options := speechtotext.ListenOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	r.mu.Lock()
	if r.listening {
		r.mu.Unlock()
		return speechtotext.ErrAlreadyListening
	}
	r.listening = true
	r.sessions = append(r.sessions, options)
	r.mu.Unlock()

	if options.StartedCallback != nil {
		options.StartedCallback()
	}
	return nil
}

func (r *recognizerStub) Stop(context.Context) error {
	r.mu.Lock()
	r.stops++
	if !r.listening {
		r.mu.Unlock()
		return nil
	}
	r.listening = false
	options := r.sessions[len(r.sessions)-1]
	r.mu.Unlock()

	if options.EndedCallback != nil {
		options.EndedCallback()
	}
	return nil
}

// emitFinal simulates the user finishing an utterance: a final result
// followed by the end of the non-continuous listening session.
func (r *recognizerStub) emitFinal(transcript string) {
	r.mu.Lock()
	options := r.sessions[len(r.sessions)-1]
	r.listening = false
	r.mu.Unlock()

	if options.ResultCallback != nil {
		options.ResultCallback(transcript, true)
	}
	if options.EndedCallback != nil {
		options.EndedCallback()
	}
}

// endSession simulates a pause with no recognized speech.
func (r *recognizerStub) endSession() {
	r.mu.Lock()
	options := r.sessions[len(r.sessions)-1]
	r.listening = false
	r.mu.Unlock()

	if options.EndedCallback != nil {
		options.EndedCallback()
	}
}

func (r *recognizerStub) fail(kind speechtotext.ErrorKind, err error) {
	r.mu.Lock()
	options := r.sessions[len(r.sessions)-1]
	r.mu.Unlock()

	if options.ErrorCallback != nil {
		options.ErrorCallback(kind, err)
	}
}

func (r *recognizerStub) isListening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}

func (r *recognizerStub) sessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *recognizerStub) lastLocale() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[len(r.sessions)-1].Locale
}

func waitFor(t *testing.T, description string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", description)
}

func findWelcome(messages []conversations.Message) (conversations.Message, int) {
	var welcome conversations.Message
	count := 0
	for _, message := range messages {
		if message.Kind == conversations.KindWelcome {
			welcome = message
			count++
		}
	}
	return welcome, count
}

// startChatting drives a fresh engine through welcome playback and an
// English language choice, up to the point where it is listening for the
// first prompt.
func startChatting(t *testing.T, engine *Engine, recognizer *recognizerStub, synthesizer *synthesizerStub) {
	t.Helper()

	engine.Start()
	waitFor(t, "welcome playback", func() bool { return synthesizer.lastSpoken() != "" })
	synthesizer.complete()
	waitFor(t, "language selection capture", func() bool {
		return engine.Phase() == PhaseLanguageSelect && recognizer.isListening()
	})

	recognizer.emitFinal("請用英文")
	waitFor(t, "chatting phase", func() bool { return engine.Phase() == PhaseChatting })
	waitFor(t, "localized welcome playback", func() bool {
		return engine.Status() == StatusSpeaking
	})
	synthesizer.complete()
	waitFor(t, "chat capture", func() bool { return recognizer.isListening() })
}

func TestStartPlaysWelcomeThenListensBroadly(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	engine := NewEngine(WithRecognizer(recognizer), WithSynthesizer(synthesizer))
	engine.Run(context.Background())
	defer engine.Close()

	engine.Start()

	waitFor(t, "welcoming phase", func() bool { return engine.Phase() == PhaseWelcoming })
	waitFor(t, "welcome spoken", func() bool { return synthesizer.lastSpoken() != "" })

	snapshot := engine.Snapshot()
	welcome, count := findWelcome(snapshot.Messages)
	if count != 1 {
		t.Fatalf("expected exactly one welcome message, got %d", count)
	}
	if welcome.Role != conversations.RoleModel {
		t.Fatalf("expected the welcome to be a model message")
	}
	if recognizer.isListening() {
		t.Fatalf("expected no capture while the welcome is playing")
	}

	synthesizer.complete()

	waitFor(t, "language selection capture", func() bool {
		return engine.Phase() == PhaseLanguageSelect && recognizer.isListening()
	})
	if locale := recognizer.lastLocale(); locale != "" {
		t.Fatalf("expected broad recognition locale during selection, got %q", locale)
	}

	// A second start must not reset an ongoing conversation.
	engine.Start()
	time.Sleep(10 * time.Millisecond)
	if engine.Phase() != PhaseLanguageSelect {
		t.Fatalf("expected repeated start to be ignored, phase is %s", engine.Phase())
	}
}

func TestLanguageChoiceSwitchesToChatting(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	engine := NewEngine(WithRecognizer(recognizer), WithSynthesizer(synthesizer))
	engine.Run(context.Background())
	defer engine.Close()

	startChatting(t, engine, recognizer, synthesizer)

	if language := engine.Language(); language != "en-US" {
		t.Fatalf("expected session language en-US, got %s", language)
	}

	snapshot := engine.Snapshot()
	welcome, count := findWelcome(snapshot.Messages)
	if count != 1 {
		t.Fatalf("expected the English welcome to replace the default one, got %d welcomes", count)
	}
	if welcome.Text != DefaultPrompts()["en-US"].Welcome {
		t.Fatalf("expected the English welcome text, got %q", welcome.Text)
	}

	if locale := recognizer.lastLocale(); locale != "en-US" {
		t.Fatalf("expected language-specific capture locale, got %q", locale)
	}
}

func TestUnrecognizedLanguageRepromptsAndStaysInSelection(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	engine := NewEngine(WithRecognizer(recognizer), WithSynthesizer(synthesizer))
	engine.Run(context.Background())
	defer engine.Close()

	engine.Start()
	waitFor(t, "welcome playback", func() bool { return synthesizer.lastSpoken() != "" })
	synthesizer.complete()
	waitFor(t, "language selection capture", func() bool { return recognizer.isListening() })

	recognizer.emitFinal("what time is it")

	retry := DefaultPrompts().ForLanguage("cmn-Hant-TW").Retry
	waitFor(t, "retry prompt", func() bool { return synthesizer.lastSpoken() == retry })

	if engine.Phase() != PhaseLanguageSelect {
		t.Fatalf("expected to remain in language selection, got %s", engine.Phase())
	}

	welcome, count := findWelcome(engine.Snapshot().Messages)
	if count != 1 || welcome.Text != retry {
		t.Fatalf("expected the retry prompt to be the sole welcome message, got %d/%q",
			count, welcome.Text)
	}

	synthesizer.complete()
	waitFor(t, "capture re-armed", func() bool { return recognizer.isListening() })
	if locale := recognizer.lastLocale(); locale != "" {
		t.Fatalf("expected broad locale for the retry, got %q", locale)
	}
}

func TestPromptDispatchAndLanguageTag(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	client := &queryClientStub{chat: &chatStub{
		reply: func(string) (*query.Reply, error) {
			return &query.Reply{
				Text: "您好，這是答案。[lang: cmn-Hant-TW]",
				Sources: []conversations.Source{
					{URI: "https://a.example", Title: "A"},
					{URI: "https://a.example", Title: "A again"},
					{URI: "https://b.example", Title: ""},
				},
			}, nil
		},
	}}
	engine := NewEngine(
		WithRecognizer(recognizer),
		WithSynthesizer(synthesizer),
		WithQueryClient(client),
	)
	engine.Run(context.Background())
	defer engine.Close()

	startChatting(t, engine, recognizer, synthesizer)

	recognizer.emitFinal("what is the answer")

	waitFor(t, "model response", func() bool {
		messages := engine.Snapshot().Messages
		return len(messages) > 0 && messages[len(messages)-1].Text == "您好，這是答案。"
	})

	snapshot := engine.Snapshot()
	response := snapshot.Messages[len(snapshot.Messages)-1]
	if response.Role != conversations.RoleModel || response.Kind != conversations.KindInteraction {
		t.Fatalf("expected a model interaction message, got %s/%s", response.Role, response.Kind)
	}
	if len(response.Sources) != 1 || response.Sources[0].URI != "https://a.example" {
		t.Fatalf("expected filtered deduplicated sources, got %+v", response.Sources)
	}
	if snapshot.Language != "cmn-Hant-TW" {
		t.Fatalf("expected the session language to follow the tag, got %s", snapshot.Language)
	}

	user := snapshot.Messages[len(snapshot.Messages)-2]
	if user.Role != conversations.RoleUser || user.Text != "what is the answer" {
		t.Fatalf("expected the user prompt to be logged before the response, got %+v", user)
	}

	synthesizer.complete()
	waitFor(t, "capture restart after response", func() bool { return recognizer.isListening() })
	if locale := recognizer.lastLocale(); locale != "zh-TW" {
		t.Fatalf("expected capture in the new language's locale, got %q", locale)
	}
}

func TestQueryFailureLogsApologyAndRecovers(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	client := &queryClientStub{chat: &chatStub{
		reply: func(string) (*query.Reply, error) {
			return nil, errors.New("transport failure")
		},
	}}
	engine := NewEngine(
		WithRecognizer(recognizer),
		WithSynthesizer(synthesizer),
		WithQueryClient(client),
	)
	engine.Run(context.Background())
	defer engine.Close()

	startChatting(t, engine, recognizer, synthesizer)

	recognizer.emitFinal("tell me something")

	apology := DefaultPrompts().ForLanguage("en-US").Apology
	waitFor(t, "apology response", func() bool {
		messages := engine.Snapshot().Messages
		return len(messages) > 0 && messages[len(messages)-1].Text == apology
	})

	response := engine.Snapshot().Messages[len(engine.Snapshot().Messages)-1]
	if response.Role != conversations.RoleModel {
		t.Fatalf("expected the apology as a model message")
	}
	if len(response.Sources) != 0 {
		t.Fatalf("expected no sources on failure, got %d", len(response.Sources))
	}
	if engine.Language() != "en-US" {
		t.Fatalf("expected the session language to be unchanged, got %s", engine.Language())
	}

	synthesizer.complete()
	waitFor(t, "recovery", func() bool {
		return engine.Status() == StatusListening && recognizer.isListening()
	})
}

func TestIdleTimeoutTerminatesSession(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	engine := NewEngine(
		WithRecognizer(recognizer),
		WithSynthesizer(synthesizer),
		WithIdleTimeout(30*time.Millisecond),
	)
	engine.Run(context.Background())
	defer engine.Close()

	startChatting(t, engine, recognizer, synthesizer)

	waitFor(t, "session end", func() bool { return engine.Phase() == PhaseEnded })

	farewell := DefaultPrompts().ForLanguage("en-US").Farewell
	waitFor(t, "farewell", func() bool { return synthesizer.lastSpoken() == farewell })

	messages := engine.Snapshot().Messages
	if messages[len(messages)-1].Text != farewell {
		t.Fatalf("expected the farewell to be logged, got %q", messages[len(messages)-1].Text)
	}

	sessions := recognizer.sessionCount()
	synthesizer.complete()
	waitFor(t, "idle after farewell", func() bool { return engine.Status() == StatusIdle })

	time.Sleep(20 * time.Millisecond)
	if recognizer.sessionCount() != sessions || recognizer.isListening() {
		t.Fatalf("expected no capture restart after the session ended")
	}
}

func TestTerminateWhileListening(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	engine := NewEngine(WithRecognizer(recognizer), WithSynthesizer(synthesizer))
	engine.Run(context.Background())
	defer engine.Close()

	startChatting(t, engine, recognizer, synthesizer)

	engine.Terminate()

	waitFor(t, "ended phase", func() bool { return engine.Phase() == PhaseEnded })
	waitFor(t, "capture stopped", func() bool { return !recognizer.isListening() })

	farewell := DefaultPrompts().ForLanguage("en-US").Farewell
	waitFor(t, "farewell playback", func() bool { return synthesizer.lastSpoken() == farewell })

	// Transcripts after the end are ignored.
	engine.SendTranscript("hello?")
	time.Sleep(10 * time.Millisecond)
	messages := engine.Snapshot().Messages
	if messages[len(messages)-1].Text != farewell {
		t.Fatalf("expected no messages after the farewell")
	}
}

func TestToggleCaptureStopsAndRestarts(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	engine := NewEngine(WithRecognizer(recognizer), WithSynthesizer(synthesizer))
	engine.Run(context.Background())
	defer engine.Close()

	startChatting(t, engine, recognizer, synthesizer)

	engine.ToggleCapture()
	waitFor(t, "capture stopped", func() bool {
		return !recognizer.isListening() && engine.Status() == StatusIdle
	})

	// The deliberate stop must not be followed by an auto-restart.
	time.Sleep(20 * time.Millisecond)
	if recognizer.isListening() {
		t.Fatalf("expected capture to stay off after a deliberate stop")
	}

	engine.ToggleCapture()
	waitFor(t, "capture restarted", func() bool {
		return recognizer.isListening() && engine.Status() == StatusListening
	})
	if locale := recognizer.lastLocale(); locale != "en-US" {
		t.Fatalf("expected the session locale on manual restart, got %q", locale)
	}
}

func TestCaptureAutoRestartsAfterSilentPause(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	engine := NewEngine(WithRecognizer(recognizer), WithSynthesizer(synthesizer))
	engine.Run(context.Background())
	defer engine.Close()

	startChatting(t, engine, recognizer, synthesizer)

	sessions := recognizer.sessionCount()
	recognizer.endSession()

	waitFor(t, "auto-restart", func() bool {
		return recognizer.sessionCount() == sessions+1 && recognizer.isListening()
	})
}

func TestTransientCaptureErrorIsSwallowed(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	engine := NewEngine(WithRecognizer(recognizer), WithSynthesizer(synthesizer))
	engine.Run(context.Background())
	defer engine.Close()

	startChatting(t, engine, recognizer, synthesizer)

	sessions := recognizer.sessionCount()
	recognizer.fail(speechtotext.ErrorKindNoSpeech, nil)
	recognizer.endSession()

	waitFor(t, "restart after transient error", func() bool {
		return recognizer.sessionCount() == sessions+1
	})
}

func TestFatalCaptureErrorForcesIdleWithoutRestart(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	engine := NewEngine(WithRecognizer(recognizer), WithSynthesizer(synthesizer))
	engine.Run(context.Background())
	defer engine.Close()

	startChatting(t, engine, recognizer, synthesizer)

	sessions := recognizer.sessionCount()
	recognizer.fail(speechtotext.ErrorKindNotSupported, errors.New("capture api unsupported"))
	waitFor(t, "forced idle", func() bool { return engine.Status() == StatusIdle })
	recognizer.endSession()

	time.Sleep(20 * time.Millisecond)
	if recognizer.sessionCount() != sessions {
		t.Fatalf("expected no auto-restart after a fatal capture error")
	}

	// The mic control still works as a manual retry.
	engine.ToggleCapture()
	waitFor(t, "manual restart", func() bool { return recognizer.isListening() })
}

func TestStalePlaybackCompletionIsDiscarded(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	engine := NewEngine(WithRecognizer(recognizer), WithSynthesizer(synthesizer))
	engine.Run(context.Background())
	defer engine.Close()

	engine.Start()
	waitFor(t, "welcome playback", func() bool { return synthesizer.lastSpoken() != "" })

	synthesizer.complete()
	synthesizer.complete()

	waitFor(t, "language selection", func() bool { return engine.Phase() == PhaseLanguageSelect })
	time.Sleep(20 * time.Millisecond)

	if engine.Phase() != PhaseLanguageSelect {
		t.Fatalf("expected the duplicate completion to be discarded, phase is %s", engine.Phase())
	}
	if recognizer.sessionCount() != 1 {
		t.Fatalf("expected a single capture session, got %d", recognizer.sessionCount())
	}
}

func TestDuplicateFinalTranscriptIsDropped(t *testing.T) {
	recognizer := &recognizerStub{}
	synthesizer := &synthesizerStub{}
	replies := 0
	client := &queryClientStub{chat: &chatStub{
		reply: func(string) (*query.Reply, error) {
			replies++
			return &query.Reply{Text: "answer [lang: en-US]"}, nil
		},
	}}
	engine := NewEngine(
		WithRecognizer(recognizer),
		WithSynthesizer(synthesizer),
		WithQueryClient(client),
	)
	engine.Run(context.Background())
	defer engine.Close()

	startChatting(t, engine, recognizer, synthesizer)

	recognizer.mu.Lock()
	options := recognizer.sessions[len(recognizer.sessions)-1]
	recognizer.mu.Unlock()

	// The service re-emits the same final result before winding down.
	options.ResultCallback("same question", true)
	options.ResultCallback("same question", true)
	recognizer.endSession()

	waitFor(t, "single response", func() bool {
		messages := engine.Snapshot().Messages
		return len(messages) > 0 && messages[len(messages)-1].Text == "answer"
	})

	userTurns := 0
	for _, message := range engine.Snapshot().Messages {
		if message.Role == conversations.RoleUser {
			userTurns++
		}
	}
	if userTurns != 1 || replies != 1 {
		t.Fatalf("expected the duplicate transcript to be dropped, got %d user turns and %d replies",
			userTurns, replies)
	}
}

func TestStopCaptureIsIdempotent(t *testing.T) {
	recognizer := &recognizerStub{}
	capture := newSpeechCapture(func(events.Event) {})
	capture.set(recognizer)

	if err := capture.start(context.Background(), "en-US"); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if err := capture.stop(context.Background()); err != nil {
		t.Fatalf("expected first stop to succeed, got %v", err)
	}
	if err := capture.stop(context.Background()); err != nil {
		t.Fatalf("expected repeated stop to be a no-op, got %v", err)
	}

	recognizer.mu.Lock()
	stops := recognizer.stops
	recognizer.mu.Unlock()
	if stops != 2 {
		t.Fatalf("expected both stops to reach the recognizer, got %d", stops)
	}
}

func TestStartCaptureWhileRunningIsNoOp(t *testing.T) {
	recognizer := &recognizerStub{}
	capture := newSpeechCapture(func(events.Event) {})
	capture.set(recognizer)

	if err := capture.start(context.Background(), ""); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if err := capture.start(context.Background(), ""); err != nil {
		t.Fatalf("expected concurrent start to be swallowed, got %v", err)
	}
	if recognizer.sessionCount() != 1 {
		t.Fatalf("expected a single listening session, got %d", recognizer.sessionCount())
	}
}
