package conversations

import (
	"log"
	"sync"

	"github.com/jinzhu/copier"
)

// Log is the ordered history of exchanged turns. It is append-only, with one
// exception: appending a welcome-kind message replaces any welcome message
// already present, so at most one welcome is ever visible.
type Log struct {
	mu       sync.RWMutex
	messages []Message
}

func NewLog() *Log {
	return &Log{}
}

// Append adds a message to the end of the log. A welcome-kind message first
// evicts the previous welcome, if any.
func (l *Log) Append(message Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if message.Kind == KindWelcome {
		kept := l.messages[:0]
		for _, logged := range l.messages {
			if logged.Kind != KindWelcome {
				kept = append(kept, logged)
			}
		}
		l.messages = kept
	}

	l.messages = append(l.messages, message)
}

// Messages returns a deep copy of the log. Ordering: oldest -> newest.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	messages := make([]Message, 0, len(l.messages))
	if err := copier.Copy(&messages, l.messages); err != nil {
		log.Println("Failed to copy conversation log", "error", err)
		messages = append(messages, l.messages...)
	}
	return messages
}

// Len returns the number of logged messages.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
