package dispatcher

import "freewrite-assistant/pkg/protocol"

// Action is a user command. The set is closed: Snippet, Rate, Draft and ThreadMessage.
type Action interface {
	action()
}

// Snippet requests a streamed generation. An empty Text is resolved from the
// document according to the mode.
type Snippet struct {
	Mode protocol.Mode
	Text string
}

// Rate requests a rubric evaluation. An empty Text rates the whole document.
type Rate struct {
	Mode protocol.Mode
	Text string
}

// Draft seeds the thread with a draft.
type Draft struct {
	Text string
}

// ThreadMessage posts to a chat thread on the create or regenerate channel.
type ThreadMessage struct {
	Channel  protocol.Channel
	Text     string
	ThreadID string
}

func (Snippet) action()       {}
func (Rate) action()          {}
func (Draft) action()         {}
func (ThreadMessage) action() {}
