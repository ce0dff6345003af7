// Package gemini implements the query client on the Gemini API with Google
// Search grounding, so answers carry web citations.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/ariavoice/aria-core/core/conversations"
	"github.com/ariavoice/aria-core/core/query"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

type Client struct {
	client *genai.Client
	model  string
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// NewClient builds a Gemini-backed query client. The API key is read from
// GEMINI_API_KEY; a missing key is a configuration error and fails
// construction outright.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	apiKey, ok := os.LookupEnv("GEMINI_API_KEY")
	if !ok || apiKey == "" {
		return nil, fmt.Errorf("gemini api key not found")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	client := &Client{client: genaiClient, model: defaultModel}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func (c *Client) NewChat(ctx context.Context, opts ...query.ChatOption) (query.Chat, error) {
	options := query.ChatOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	if options.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(options.SystemInstruction, genai.RoleUser)
	}

	chat, err := c.client.Chats.Create(ctx, c.model, config, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini chat: %w", err)
	}

	return &geminiChat{chat: chat, model: c.model}, nil
}

type geminiChat struct {
	chat  *genai.Chat
	model string
}

func (g *geminiChat) Send(ctx context.Context, prompt string) (*query.Reply, error) {
	ctx, span := tracer.Start(ctx, "gemini send message")
	defer span.End()
	span.SetAttributes(attribute.String("gen_ai.request.model", g.model))

	response, err := g.chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to send message to gemini: %w", err)
	}

	return &query.Reply{
		Text:    response.Text(),
		Sources: extractSources(response),
	}, nil
}

// extractSources pulls web citations out of the grounding metadata. Entries
// without a URI or title are returned as-is here; the dispatcher filters.
func extractSources(response *genai.GenerateContentResponse) []conversations.Source {
	if response == nil || len(response.Candidates) == 0 {
		return nil
	}

	metadata := response.Candidates[0].GroundingMetadata
	if metadata == nil {
		return nil
	}

	var sources []conversations.Source
	for _, chunk := range metadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		sources = append(sources, conversations.Source{
			URI:   chunk.Web.URI,
			Title: chunk.Web.Title,
		})
	}
	return sources
}
