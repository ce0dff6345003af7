// Package query defines the contract the engine uses to talk to the remote
// AI query service. A Client opens one Chat per session; the Chat retains
// conversational context across prompts on the service side.
package query

import (
	"context"

	"github.com/ariavoice/aria-core/core/conversations"
)

// Reply is a single answer from the query service.
type Reply struct {
	// Text is the raw response text, including the trailing language tag when
	// the service emitted one. Tag handling belongs to the dispatcher.
	Text string
	// Sources are the web citations grounding the answer, in service order.
	// Entries may be incomplete; filtering belongs to the dispatcher.
	Sources []conversations.Source
}

// Chat is a long-lived conversation handle. Send may fail with a transport or
// model error; the handle stays usable for subsequent prompts.
type Chat interface {
	Send(ctx context.Context, prompt string) (*Reply, error)
}

// Client creates conversation handles.
type Client interface {
	NewChat(ctx context.Context, opts ...ChatOption) (Chat, error)
}

type ChatOptions struct {
	// SystemInstruction is the persistent instruction applied to every prompt
	// of the conversation.
	SystemInstruction string
}

type ChatOption func(*ChatOptions)

func WithSystemInstruction(instruction string) ChatOption {
	return func(o *ChatOptions) { o.SystemInstruction = instruction }
}
