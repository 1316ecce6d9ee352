package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedMessage is returned by Decode when the payload is not a JSON object.
// Callers drop the message and carry on.
var ErrMalformedMessage = errors.New("malformed message")

// Request is an outbound message.
type Request interface {
	Channel() Channel
}

// SnippetRequest asks for a streamed generation in one of the snippet modes.
type SnippetRequest struct {
	InputText string  `json:"input_text" validate:"required"`
	Mode      Mode    `json:"mode" validate:"required"`
	Type      Channel `json:"websocket_type"`
	ThreadID  string  `json:"freewrite_thread_id"`
}

func (SnippetRequest) Channel() Channel { return ChannelSnippet }

// RatingRequest asks for a rubric evaluation of InputText.
type RatingRequest struct {
	InputText string  `json:"input_text" validate:"required"`
	Mode      Mode    `json:"mode" validate:"required,oneof=vspice limmy"`
	Type      Channel `json:"websocket_type"`
	ThreadID  string  `json:"freewrite_thread_id"`
}

func (RatingRequest) Channel() Channel { return ChannelRating }

// DraftRequest seeds a thread with a draft.
type DraftRequest struct {
	DraftText string  `json:"draft_text" validate:"required"`
	Type      Channel `json:"websocket_type"`
	ThreadID  string  `json:"freewrite_thread_id"`
}

func (DraftRequest) Channel() Channel { return ChannelDraft }

// ThreadRequest creates or regenerates a chat thread entry.
type ThreadRequest struct {
	InputText string  `json:"input_text" validate:"required"`
	Type      Channel `json:"websocket_type" validate:"required,oneof=create regenerate"`
	ThreadID  string  `json:"thread_id,omitempty"`
}

func (r ThreadRequest) Channel() Channel { return r.Type }

// Encode serializes req, stamping its websocket_type.
func Encode(req Request) ([]byte, error) {
	switch r := req.(type) {
	case SnippetRequest:
		r.Type = r.Channel()
		return marshal(r)
	case *SnippetRequest:
		return Encode(*r)
	case RatingRequest:
		r.Type = r.Channel()
		return marshal(r)
	case *RatingRequest:
		return Encode(*r)
	case DraftRequest:
		r.Type = r.Channel()
		return marshal(r)
	case *DraftRequest:
		return Encode(*r)
	case ThreadRequest:
		return marshal(r)
	case *ThreadRequest:
		return Encode(*r)
	default:
		return nil, fmt.Errorf("unsupported request type %T", req)
	}
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}

// Decode parses one inbound wire message.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return env, nil
}
