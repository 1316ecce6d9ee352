package nats

import (
	"testing"

	"freewrite-assistant/pkg/events"
)

func TestSubject(t *testing.T) {
	tests := map[string]string{
		events.TypeGenerationCompleted: "assistant.generation_completed",
		events.TypeRatingCompleted:     "assistant.rating_completed",
	}
	for eventType, want := range tests {
		if got := Subject(eventType); got != want {
			t.Errorf("Subject(%q) = %q, want %q", eventType, got, want)
		}
	}
}
