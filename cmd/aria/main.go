// Command aria runs the voice assistant on real devices: microphone capture
// through malgo, Deepgram speech recognition and synthesis, and Gemini with
// search grounding for answers.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/pflag"

	orchestration "github.com/ariavoice/aria-core/core"
	"github.com/ariavoice/aria-core/core/audio/miniaudio"
	"github.com/ariavoice/aria-core/core/conversations"
	"github.com/ariavoice/aria-core/core/query/gemini"
	sttdeepgram "github.com/ariavoice/aria-core/core/speechtotext/deepgram"
	ttsdeepgram "github.com/ariavoice/aria-core/core/texttospeech/deepgram"
)

const responseWidth = 80

var (
	userStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	modelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	statusStyle  = lipgloss.NewStyle().Faint(true)
	sourceStyle  = lipgloss.NewStyle().Faint(true).Italic(true)
	captionStyle = lipgloss.NewStyle().Faint(true)
)

func main() {
	_ = godotenv.Load()

	model := pflag.String("model", "", "Gemini model to query (empty uses the client default)")
	idleTimeout := pflag.Duration("idle-timeout", time.Minute, "end the session after this much inactivity")
	mute := pflag.Bool("mute", false, "disable speech synthesis")
	pflag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var geminiOpts []gemini.ClientOption
	if *model != "" {
		geminiOpts = append(geminiOpts, gemini.WithModel(*model))
	}
	queryClient, err := gemini.NewClient(ctx, geminiOpts...)
	if err != nil {
		log.Fatalf("Failed to create query client: %v", err)
	}

	recognizer := sttdeepgram.NewTranscriptionClient()

	opts := []orchestration.EngineOption{
		orchestration.WithRecognizer(recognizer),
		orchestration.WithQueryClient(queryClient),
		orchestration.WithIdleTimeout(*idleTimeout),
	}

	audioClient, err := miniaudio.NewClient()
	if err != nil {
		log.Printf("Audio devices unavailable, running without sound: %v", err)
		audioClient = nil
	} else {
		defer audioClient.Close()
		if err := audioClient.StartCapture(ctx, func(chunk []byte) {
			_ = recognizer.SendAudio(chunk)
		}); err != nil {
			log.Printf("Failed to start microphone capture: %v", err)
		}
	}

	if audioClient != nil && !*mute {
		synthesizer := ttsdeepgram.NewSpeechClient(
			ttsdeepgram.WithAudioSink(func(chunk []byte) { _ = audioClient.SendAudio(chunk) }),
			ttsdeepgram.WithSinkClear(audioClient.ClearBuffer),
			ttsdeepgram.WithEncodingInfo(audioClient.EncodingInfo()),
		)
		opts = append(opts, orchestration.WithSynthesizer(synthesizer))
	}

	ended := make(chan struct{})
	opts = append(opts,
		orchestration.WithMessageCallback(printMessage),
		orchestration.WithStatusChangedCallback(func(status orchestration.Status) {
			fmt.Println(statusStyle.Render("· " + string(status)))
		}),
		orchestration.WithInterimTranscriptCallback(func(transcript string) {
			fmt.Println(captionStyle.Render("… " + transcript))
		}),
		orchestration.WithPhaseChangedCallback(func(phase orchestration.Phase) {
			if phase == orchestration.PhaseEnded {
				close(ended)
			}
		}),
	)

	engine := orchestration.NewEngine(opts...)
	engine.Run(ctx)
	defer engine.Close()

	engine.Start()

	fmt.Println(statusStyle.Render("press enter to toggle the mic, type q to quit"))
	go readControls(engine)

	select {
	case <-ended:
		// Let the farewell play out.
		time.Sleep(2 * time.Second)
	case <-ctx.Done():
	}
}

func readControls(engine *orchestration.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch scanner.Text() {
		case "":
			engine.ToggleCapture()
		case "q":
			engine.Terminate()
			return
		}
	}
}

func printMessage(message conversations.Message) {
	speaker := modelStyle.Render("aria")
	if message.Role == conversations.RoleUser {
		speaker = userStyle.Render("you")
	}

	fmt.Printf("%s  %s\n", speaker, wordwrap.String(message.Text, responseWidth))
	for _, source := range message.Sources {
		fmt.Println(sourceStyle.Render(fmt.Sprintf("    ↳ %s (%s)", source.Title, source.URI)))
	}
}
