package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSnippetRequest(t *testing.T) {
	data, err := Encode(SnippetRequest{InputText: "Once upon", Mode: ModeSentence, ThreadID: "t-1"})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{
		"input_text":          "Once upon",
		"mode":                "sentence",
		"websocket_type":      "freewritesnippet",
		"freewrite_thread_id": "t-1",
	}, got)
}

func TestEncodeStampsChannel(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want Channel
	}{
		{"rating", RatingRequest{InputText: "x", Mode: ModeLimmy}, ChannelRating},
		{"rating pointer", &RatingRequest{InputText: "x", Mode: ModeVSpice}, ChannelRating},
		{"draft", DraftRequest{DraftText: "x"}, ChannelDraft},
		{"thread", ThreadRequest{InputText: "x", Type: ChannelRegenerate}, ChannelRegenerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.req)
			require.NoError(t, err)
			env, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.Type)
		})
	}
}

func TestEncodeDraftUsesDraftText(t *testing.T) {
	data, err := Encode(DraftRequest{DraftText: "seed", ThreadID: "t-9"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"draft_text":"seed","websocket_type":"freewritedraft","freewrite_thread_id":"t-9"}`, string(data))
}

func TestDecodeFragment(t *testing.T) {
	env, err := Decode([]byte(`{"output_text":"Hello","first_output":true,"mode":"headline","websocket_type":"freewritesnippet"}`))
	require.NoError(t, err)
	assert.Equal(t, "Hello", env.OutputText)
	assert.True(t, env.FirstOutput)
	assert.Equal(t, ModeHeadline, env.Mode)
	assert.False(t, env.IsDone())
	assert.False(t, env.HasError())
}

func TestDecodeTerminalAndError(t *testing.T) {
	env, err := Decode([]byte(`{"status":"DONE","error":"tokens_used","message":"out of tokens"}`))
	require.NoError(t, err)
	assert.True(t, env.IsDone())
	assert.True(t, env.HasError())
	assert.Equal(t, ErrorTokensUsed, env.Error)
}

func TestDecodeMalformed(t *testing.T) {
	for _, payload := range []string{"", "not json", `["array"]`, `{"output_text": 12}`, `{"unterminated"`} {
		_, err := Decode([]byte(payload))
		assert.ErrorIs(t, err, ErrMalformedMessage, "payload %q", payload)
	}
}

func TestModeKind(t *testing.T) {
	tests := []struct {
		mode    Mode
		want    Kind
		streams bool
	}{
		{ModeSentence, KindContinuation, true},
		{ModeParagraph, KindContinuation, true},
		{ModeHeadline, KindHeadline, true},
		{ModeFlowery, KindRewrite, true},
		{ModeTransform, KindRewrite, true},
		{ModeGenerate, KindGenerate, true},
		{ModeDraft, KindDraft, true},
		{ModeVSpice, KindRating, false},
		{ModeLimmy, KindRating, false},
		{Mode("haiku"), KindUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mode.Kind())
			assert.Equal(t, tt.streams, tt.mode.Streams())
		})
	}
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("flowery")
	assert.True(t, ok)
	assert.Equal(t, ModeFlowery, m)

	_, ok = ParseMode("limerick")
	assert.False(t, ok)
}
