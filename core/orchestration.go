package orchestration

import (
	"context"
	"sync"
	"time"

	"github.com/ariavoice/aria-core/core/conversations"
	"github.com/ariavoice/aria-core/core/events"
	"github.com/ariavoice/aria-core/core/languages"
)

const defaultIdleTimeout = 60 * time.Second

const engineEventQueueCapacity = 16

// Engine is the conversation state machine. It is the sole mutator of phase
// and status; speech capture, speech playback, the query dispatcher and the
// inactivity supervisor all report back through events handled one at a time
// on a single loop goroutine.
type Engine struct {
	mu     sync.RWMutex
	phase  Phase
	status Status

	session session
	log     *conversations.Log

	capture    *speechCapture
	playback   *speechPlayback
	dispatcher *queryDispatcher
	idle       *inactivitySupervisor

	prompts     Prompts
	idleTimeout time.Duration
	callbacks   engineCallbacks

	queue   chan events.Event
	closeCh chan struct{}
	done    chan struct{}

	runOnce   sync.Once
	closeOnce sync.Once

	baseContext context.Context
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		phase:       PhasePreStart,
		status:      StatusIdle,
		session:     session{language: languages.Default().Code},
		log:         conversations.NewLog(),
		prompts:     DefaultPrompts(),
		idleTimeout: defaultIdleTimeout,
		queue:       make(chan events.Event, engineEventQueueCapacity),
		closeCh:     make(chan struct{}),
		done:        make(chan struct{}),
		baseContext: context.Background(),
	}

	e.capture = newSpeechCapture(e.post)
	e.playback = newSpeechPlayback(e.post)
	e.dispatcher = newQueryDispatcher(nil)
	e.idle = newInactivitySupervisor(e.post)

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run starts the engine's event loop. Call it at most once per engine; ctx
// cancellation closes the engine.
func (e *Engine) Run(ctx context.Context) {
	e.runOnce.Do(func() {
		e.baseContext = ctx
		go e.loop()
		go func() {
			select {
			case <-ctx.Done():
				e.Close()
			case <-e.closeCh:
			}
		}()
	})
}

// Close ends the session and stops the event loop. It is idempotent.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.post(events.NewTerminateRequested())
		close(e.closeCh)
		<-e.done
		e.playback.cancel()
	})
}

// Start opens the conversation. Valid only while no conversation has begun;
// later calls are ignored.
func (e *Engine) Start() { e.post(events.NewStartRequested()) }

// ToggleCapture is the user-facing mic control: stop listening when
// listening, start when idle.
func (e *Engine) ToggleCapture() { e.post(events.NewCaptureToggleRequested()) }

// Terminate explicitly ends the session.
func (e *Engine) Terminate() { e.post(events.NewTerminateRequested()) }

// SendTranscript injects a final transcript, as if the capture service had
// emitted it.
func (e *Engine) SendTranscript(transcript string) {
	e.post(events.NewTranscriptFinal(transcript))
}

// Phase returns the current conversation phase.
func (e *Engine) Phase() Phase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.phase
}

// Status returns the assistant's current activity.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// Language returns the session's current dialogue language code.
func (e *Engine) Language() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session.language
}

// Snapshot is a point-in-time view of the conversation.
type Snapshot struct {
	Phase    Phase
	Status   Status
	Language string
	Messages []conversations.Message
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	phase, status, language := e.phase, e.status, e.session.language
	e.mu.RUnlock()

	return Snapshot{
		Phase:    phase,
		Status:   status,
		Language: language,
		Messages: e.log.Messages(),
	}
}

// post enqueues an event for the loop. It never blocks: collaborators post
// from their own callbacks, and a stalled loop must not deadlock them. An
// overflowing queue means events are being produced faster than the loop
// consumes them, which the loop's synchronous handlers make pathological.
func (e *Engine) post(event events.Event) {
	select {
	case e.queue <- event:
	default:
		logger.Warn("Engine event queue full, dropping event", "kind", string(event.Kind()))
	}
}

func (e *Engine) loop() {
	defer close(e.done)

	for {
		select {
		case event := <-e.queue:
			e.handleEvent(event)
		case <-e.closeCh:
			// Drain whatever was posted before the close.
			for {
				select {
				case event := <-e.queue:
					e.handleEvent(event)
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) handleEvent(event events.Event) {
	switch typedEvent := event.(type) {
	case events.StartRequested:
		e.handleStart()
	case events.TranscriptInterim:
		if e.callbacks.onInterimTranscript != nil {
			e.callbacks.onInterimTranscript(typedEvent.Transcript)
		}
	case events.TranscriptFinal:
		e.handleFinalTranscript(typedEvent.Transcript)
	case events.CaptureStarted:
		e.handleCaptureStarted()
	case events.CaptureEnded:
		e.handleCaptureEnded()
	case events.CaptureFailed:
		e.handleCaptureFailed(typedEvent)
	case events.CaptureToggleRequested:
		e.handleCaptureToggle()
	case events.PlaybackEnded:
		e.handlePlaybackEnded(typedEvent)
	case events.QueryCompleted:
		e.handleQueryCompleted(typedEvent)
	case events.TerminateRequested:
		e.handleTerminate()
	case events.IdleTimeout:
		e.handleIdleTimeout(typedEvent)
	}
}

func (e *Engine) handleStart() {
	if e.session.started || e.Phase() != PhasePreStart {
		return
	}
	e.session.started = true

	e.setPhase(PhaseWelcoming)

	greeting := e.prompts.ForLanguage(e.Language()).LanguageRequest
	e.logMessage(conversations.NewMessage(
		conversations.RoleModel, conversations.KindWelcome, greeting, nil))
	e.speak(greeting)
}

// handleFinalTranscript routes a committed transcript by phase: language
// selection interprets it as a language choice, chatting dispatches it to the
// query service, every other phase ignores it.
func (e *Engine) handleFinalTranscript(transcript string) {
	if transcript == "" {
		return
	}

	if e.Status() == StatusListening && transcript == e.session.lastTranscript {
		// Some capture services re-emit the last final result when a session
		// winds down.
		return
	}
	e.session.lastTranscript = transcript

	e.idle.Cancel()

	switch e.Phase() {
	case PhaseLanguageSelect:
		e.handleLanguageChoice(transcript)
	case PhaseChatting:
		e.handlePrompt(transcript)
	}
}

func (e *Engine) handleLanguageChoice(transcript string) {
	e.stopCapture()
	e.setStatus(StatusIdle)

	language, ok := languages.Interpret(transcript)
	if !ok {
		// No keyword matched: re-prompt in the default language and keep
		// waiting. There is no retry limit.
		retry := e.prompts.ForLanguage(languages.Default().Code).Retry
		e.logMessage(conversations.NewMessage(
			conversations.RoleModel, conversations.KindWelcome, retry, nil))
		e.speak(retry)
		return
	}

	e.setLanguage(language.Code)
	e.setPhase(PhaseChatting)

	welcome := e.prompts.ForLanguage(language.Code).Welcome
	e.logMessage(conversations.NewMessage(
		conversations.RoleModel, conversations.KindWelcome, welcome, nil))
	e.speak(welcome)
}

func (e *Engine) handlePrompt(transcript string) {
	if e.Status() == StatusThinking {
		// One query in flight at a time. Capture is stopped before every
		// dispatch, so this guard only catches events that were already
		// queued when the previous dispatch began.
		return
	}

	e.logMessage(conversations.NewMessage(
		conversations.RoleUser, conversations.KindInteraction, transcript, nil))

	e.stopCapture()
	e.setStatus(StatusThinking)

	if !e.dispatcher.configured() {
		apology := e.prompts.ForLanguage(e.Language()).Apology
		e.post(events.NewQueryCompleted(apology, nil, "", true))
		return
	}

	apology := e.prompts.ForLanguage(e.Language()).Apology
	go func() {
		result := e.dispatcher.Dispatch(e.baseContext, transcript, apology)
		e.post(events.NewQueryCompleted(result.text, result.sources, result.language, result.failed))
	}()
}

func (e *Engine) handleQueryCompleted(event events.QueryCompleted) {
	if e.Phase() != PhaseChatting {
		// The session ended while the query was in flight; the farewell has
		// already taken over the dialogue.
		return
	}

	if event.Language != "" && languages.IsSupported(event.Language) {
		e.setLanguage(event.Language)
	}

	e.logMessage(conversations.NewMessage(
		conversations.RoleModel, conversations.KindInteraction, event.Text, event.Sources))
	e.speak(event.Text)
}

func (e *Engine) handleTerminate() {
	if e.Phase() == PhaseEnded {
		return
	}
	if e.Phase() == PhasePreStart {
		e.setPhase(PhaseEnded)
		return
	}

	e.setPhase(PhaseEnded)
	e.stopCapture()
	e.setStatus(StatusIdle)
	e.idle.Cancel()

	farewell := e.prompts.ForLanguage(e.Language()).Farewell
	e.logMessage(conversations.NewMessage(
		conversations.RoleModel, conversations.KindInteraction, farewell, nil))
	e.speak(farewell)
}

func (e *Engine) handleIdleTimeout(event events.IdleTimeout) {
	if !e.idle.Current(event.Generation) {
		// A firing that raced its own cancellation.
		return
	}

	e.idle.Cancel()
	e.handleTerminate()
}

func (e *Engine) setPhase(phase Phase) {
	e.mu.Lock()
	changed := e.phase != phase
	e.phase = phase
	e.mu.Unlock()

	if changed && e.callbacks.onPhaseChanged != nil {
		e.callbacks.onPhaseChanged(phase)
	}
}

func (e *Engine) setStatus(status Status) {
	e.mu.Lock()
	if e.status == status {
		e.mu.Unlock()
		return
	}
	if !allowedStatus(e.phase, status) {
		phase := e.phase
		e.mu.Unlock()
		logger.Warn("Refusing invalid status for phase",
			"phase", string(phase), "status", string(status))
		return
	}
	e.status = status
	e.mu.Unlock()

	if e.callbacks.onStatusChanged != nil {
		e.callbacks.onStatusChanged(status)
	}
}

func (e *Engine) setLanguage(code string) {
	e.mu.Lock()
	e.session.language = code
	e.mu.Unlock()
}

func (e *Engine) resolveLanguage() languages.Language {
	return languages.Resolve(e.Language())
}

func (e *Engine) logMessage(message conversations.Message) {
	e.log.Append(message)
	if e.callbacks.onMessage != nil {
		e.callbacks.onMessage(message)
	}
}
