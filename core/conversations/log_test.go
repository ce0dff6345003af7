package conversations

import "testing"

func TestLogAppendsInOrder(t *testing.T) {
	log := NewLog()
	log.Append(NewMessage(RoleUser, KindInteraction, "first", nil))
	log.Append(NewMessage(RoleModel, KindInteraction, "second", nil))

	messages := log.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Text != "first" || messages[1].Text != "second" {
		t.Fatalf("expected insertion order to be preserved, got %q then %q",
			messages[0].Text, messages[1].Text)
	}
}

func TestWelcomeMessageIsReplaced(t *testing.T) {
	log := NewLog()
	log.Append(NewMessage(RoleModel, KindWelcome, "welcome one", nil))
	log.Append(NewMessage(RoleUser, KindInteraction, "hello", nil))
	log.Append(NewMessage(RoleModel, KindWelcome, "welcome two", nil))

	welcomes := 0
	for _, message := range log.Messages() {
		if message.Kind == KindWelcome {
			welcomes++
			if message.Text != "welcome two" {
				t.Fatalf("expected only the second welcome to survive, got %q", message.Text)
			}
		}
	}
	if welcomes != 1 {
		t.Fatalf("expected exactly one welcome message, got %d", welcomes)
	}

	if log.Len() != 2 {
		t.Fatalf("expected interaction plus one welcome, got %d messages", log.Len())
	}
}

func TestMessagesReturnsIsolatedCopy(t *testing.T) {
	log := NewLog()
	log.Append(NewMessage(RoleModel, KindInteraction, "answer", []Source{
		{URI: "https://example.com", Title: "Example"},
	}))

	messages := log.Messages()
	messages[0].Text = "mutated"
	messages[0].Sources[0].Title = "mutated"

	fresh := log.Messages()
	if fresh[0].Text != "answer" {
		t.Fatalf("expected log text to be unaffected by snapshot mutation, got %q", fresh[0].Text)
	}
	if fresh[0].Sources[0].Title != "Example" {
		t.Fatalf("expected log sources to be unaffected by snapshot mutation, got %q",
			fresh[0].Sources[0].Title)
	}
}
