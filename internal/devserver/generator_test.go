package devserver

import (
	"context"
	"strings"
	"testing"

	"freewrite-assistant/pkg/protocol"
	"freewrite-assistant/pkg/rating"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, req protocol.Envelope) []protocol.Envelope {
	t.Helper()
	var out []protocol.Envelope
	NewGenerator(0).Respond(context.Background(), req, func(env protocol.Envelope) bool {
		out = append(out, env)
		return true
	})
	return out
}

func TestSnippetStream(t *testing.T) {
	replies := collect(t, protocol.Envelope{Type: protocol.ChannelSnippet, Mode: protocol.ModeSentence, InputText: "Once upon a time"})
	require.GreaterOrEqual(t, len(replies), 2)

	assert.True(t, replies[0].FirstOutput)
	for _, r := range replies[1:] {
		assert.False(t, r.FirstOutput)
	}
	last := replies[len(replies)-1]
	assert.True(t, last.IsDone())
	assert.Empty(t, last.OutputText)

	var text strings.Builder
	for _, r := range replies {
		assert.Equal(t, protocol.ChannelSnippet, r.Type)
		assert.Equal(t, protocol.ModeSentence, r.Mode)
		text.WriteString(r.OutputText)
	}
	assert.Equal(t, snippetText(protocol.ModeSentence, ""), text.String())
}

func TestRatingStreamParses(t *testing.T) {
	replies := collect(t, protocol.Envelope{Type: protocol.ChannelRating, Mode: protocol.ModeLimmy, InputText: "An essay."})

	var buf strings.Builder
	for _, r := range replies {
		buf.WriteString(r.OutputText)
	}
	result, err := rating.ParseString(buf.String())
	require.NoError(t, err)
	assert.Len(t, result.Scores, len(ratingCategories[protocol.ModeLimmy]))
	assert.NotZero(t, result.OverallScore)
}

func TestErrorMarkers(t *testing.T) {
	quota := collect(t, protocol.Envelope{Type: protocol.ChannelSnippet, Mode: protocol.ModeParagraph, InputText: "text #quota"})
	require.Len(t, quota, 1)
	assert.Equal(t, protocol.ErrorTokensUsed, quota[0].Error)

	failed := collect(t, protocol.Envelope{Type: protocol.ChannelSnippet, Mode: protocol.ModeParagraph, InputText: "text #fail"})
	require.Len(t, failed, 2)
	assert.True(t, failed[0].FirstOutput)
	assert.True(t, failed[1].IsDone())
	assert.Equal(t, protocol.ErrorOpenAI, failed[1].Error)
}

func TestThreadReply(t *testing.T) {
	replies := collect(t, protocol.Envelope{Type: protocol.ChannelCreate, InputText: "hello there"})
	require.Len(t, replies, 1)
	assert.NotEmpty(t, replies[0].ThreadID)
	assert.True(t, replies[0].IsDone())
}

func TestRespondStopsWhenEmitFails(t *testing.T) {
	calls := 0
	NewGenerator(0).Respond(context.Background(), protocol.Envelope{Type: protocol.ChannelSnippet, Mode: protocol.ModeParagraph}, func(protocol.Envelope) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "The Quick Brown Fox", titleCase("the quick brown fox"))
	assert.Equal(t, "Ünïcode Words", titleCase("ünïcode words"))
}
