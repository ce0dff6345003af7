package deepgram

import (
	"context"

	"github.com/ariavoice/aria-core/core/texttospeech"
)

// availableVoices is the static table of Aura voices this client exposes.
// Deepgram has no voice-listing endpoint, so the list ships with the client;
// Voices still takes a context to satisfy the synthesizer contract, which
// allows asynchronously loaded voice lists.
var availableVoices = []texttospeech.Voice{
	{Name: "aura-2-thalia-en", Locale: "en-US", Default: true},
	{Name: "aura-2-draco-en", Locale: "en-GB"},
	{Name: "aura-2-celeste-es", Locale: "es-419"},
	{Name: "aura-2-carina-de", Locale: "de-DE"},
}

func (c *SpeechClient) Voices(context.Context) ([]texttospeech.Voice, error) {
	voices := make([]texttospeech.Voice, len(availableVoices))
	copy(voices, availableVoices)
	return voices, nil
}
