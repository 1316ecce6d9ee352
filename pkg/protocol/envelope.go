package protocol

// Channel is the websocket_type of an envelope. It selects the protocol channel.
type Channel string

const (
	ChannelSnippet    Channel = "freewritesnippet"
	ChannelRating     Channel = "rating"
	ChannelDraft      Channel = "freewritedraft"
	ChannelCreate     Channel = "create"
	ChannelRegenerate Channel = "regenerate"
)

// Status values carried by inbound fragments
const (
	StatusDone = "DONE"
)

// ErrorCode is the value of an inbound envelope's error field.
type ErrorCode string

const (
	ErrorTokensUsed ErrorCode = "tokens_used"
	ErrorOpenAI     ErrorCode = "openai_error"
	ErrorMaxTokens  ErrorCode = "max_tokens"
)

// Envelope is the single JSON object exchanged over the duplex connection.
// Outbound and inbound messages share it; absent fields are omitted on the wire.
type Envelope struct {
	Type              Channel   `json:"websocket_type,omitempty"`
	Mode              Mode      `json:"mode,omitempty"`
	InputText         string    `json:"input_text,omitempty"`
	DraftText         string    `json:"draft_text,omitempty"`
	OutputText        string    `json:"output_text,omitempty"`
	Status            string    `json:"status,omitempty"`
	FirstOutput       bool      `json:"first_output,omitempty"`
	ThreadID          string    `json:"thread_id,omitempty"`
	FreewriteThreadID string    `json:"freewrite_thread_id,omitempty"`
	Error             ErrorCode `json:"error,omitempty"`
	Message           string    `json:"message,omitempty"`
}

// IsDone reports whether the envelope is the terminal sentinel of a stream.
func (e Envelope) IsDone() bool {
	return e.Status == StatusDone
}

// HasError reports whether the envelope carries an error field.
func (e Envelope) HasError() bool {
	return e.Error != ""
}
