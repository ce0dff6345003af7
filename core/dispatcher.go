package orchestration

import (
	"context"
	"regexp"
	"strings"

	"github.com/ariavoice/aria-core/core/conversations"
	"github.com/ariavoice/aria-core/core/query"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// langTagPattern matches the machine-readable language tag the query service
// appends to every response: `[lang: <code>]`, anchored at the very end of
// the text. Any deviation from this format on the service side breaks
// language switching, so nothing looser is accepted.
var langTagPattern = regexp.MustCompile(`\s*\[lang:\s*([a-zA-Z]{2,3}-[a-zA-Z]{2,4}(?:-[a-zA-Z]{2,4})?)\]\s*$`)

// dispatchResult is what the dispatcher hands back to the engine loop. It is
// always usable: failures are folded into apology text.
type dispatchResult struct {
	text     string
	sources  []conversations.Source
	language string
	failed   bool
}

// queryDispatcher owns the conversation handle to the AI query service. The
// handle is created lazily on the first dispatch and reused afterwards so the
// service retains conversational context. Only Dispatch touches it, and the
// engine never runs two dispatches concurrently.
type queryDispatcher struct {
	client query.Client
	chat   query.Chat
}

func newQueryDispatcher(client query.Client) *queryDispatcher {
	return &queryDispatcher{client: client}
}

func (d *queryDispatcher) configured() bool {
	return d != nil && d.client != nil
}

// Dispatch sends one prompt and post-processes the response: the trailing
// language tag is extracted and stripped, and cited sources are filtered and
// deduplicated. Errors never escape; the caller receives apology as the
// response text instead.
func (d *queryDispatcher) Dispatch(ctx context.Context, prompt string, apology string) dispatchResult {
	ctx, span := tracer.Start(ctx, "dispatch query")
	defer span.End()

	reply, err := d.send(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dispatchResult{text: apology, failed: true}
	}

	text, language := extractLanguageTag(reply.Text)
	span.SetAttributes(
		attribute.String("response.language_tag", language),
		attribute.Int("response.sources", len(reply.Sources)),
	)

	return dispatchResult{
		text:     text,
		sources:  filterSources(reply.Sources),
		language: language,
	}
}

func (d *queryDispatcher) send(ctx context.Context, prompt string) (*query.Reply, error) {
	if d.chat == nil {
		chat, err := d.client.NewChat(ctx, query.WithSystemInstruction(systemInstruction()))
		if err != nil {
			return nil, err
		}
		d.chat = chat
	}

	return d.chat.Send(ctx, prompt)
}

// extractLanguageTag splits the trailing language tag off the response text.
// It returns the user-visible text with the tag and adjoining whitespace
// removed, plus the extracted code ("" when no well-formed tag is present).
func extractLanguageTag(text string) (string, string) {
	match := langTagPattern.FindStringSubmatch(text)
	if match == nil {
		return strings.TrimSpace(text), ""
	}

	stripped := langTagPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(stripped), match[1]
}

// filterSources drops citations missing a URI or title and deduplicates by
// URI, keeping the first occurrence's order.
func filterSources(sources []conversations.Source) []conversations.Source {
	var filtered []conversations.Source
	seen := map[string]struct{}{}
	for _, source := range sources {
		if source.URI == "" || source.Title == "" {
			continue
		}
		if _, ok := seen[source.URI]; ok {
			continue
		}
		seen[source.URI] = struct{}{}
		filtered = append(filtered, source)
	}
	return filtered
}
