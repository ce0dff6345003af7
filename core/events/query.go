package events

import "github.com/ariavoice/aria-core/core/conversations"

const (
	// KindQueryCompleted identifies a finished round-trip to the query
	// service. Failures are folded into the same event: the dispatcher always
	// delivers usable response text.
	KindQueryCompleted Kind = "query.completed"
)

// QueryCompleted carries the dispatcher's processed response.
type QueryCompleted struct {
	Base
	// Text is the user-visible response with the language tag stripped.
	Text string
	// Sources are the filtered, deduplicated citations.
	Sources []conversations.Source
	// Language is the code extracted from the trailing language tag, empty
	// when the response carried none.
	Language string
	// Failed marks a response synthesized after a transport or model error.
	Failed bool
}

// NewQueryCompleted creates a query completed event.
func NewQueryCompleted(text string, sources []conversations.Source, language string, failed bool) QueryCompleted {
	return QueryCompleted{
		Base:     NewBase(KindQueryCompleted),
		Text:     text,
		Sources:  sources,
		Language: language,
		Failed:   failed,
	}
}
