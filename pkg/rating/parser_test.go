package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantScores  map[string]int
		wantOverall int
	}{
		{
			name:        "two categories",
			input:       "Curiosity: 80/100\nFeedback: Good questions.\n\nExpression: 60/100\nFeedback: Needs variety.",
			wantScores:  map[string]int{"curiosity": 80, "expression": 60},
			wantOverall: 70,
		},
		{
			name:        "no feedback delimiter",
			input:       "Curiosity: 80/100 Good questions. Expression: 60/100",
			wantScores:  map[string]int{},
			wantOverall: 0,
		},
		{
			name:        "empty buffer",
			input:       "",
			wantScores:  map[string]int{},
			wantOverall: 0,
		},
		{
			name:        "non integer score skipped",
			input:       "Voice: high/100\nFeedback: Strong.\n\nClarity: 71/100\nFeedback: Mostly clear.",
			wantScores:  map[string]int{"clarity": 71},
			wantOverall: 71,
		},
		{
			name:        "header without colon skipped",
			input:       "Voice 90/100\nFeedback: Strong.\n\n  Flow : 50/100\nFeedback: Choppy.",
			wantScores:  map[string]int{"flow": 50},
			wantOverall: 50,
		},
		{
			name:        "half rounds up",
			input:       "A: 70/100\nFeedback: ok\n\nB: 71/100\nFeedback: ok",
			wantScores:  map[string]int{"a": 70, "b": 71},
			wantOverall: 71,
		},
		{
			name:        "score without denominator",
			input:       "Tone: 42\nFeedback: Flat.",
			wantScores:  map[string]int{"tone": 42},
			wantOverall: 42,
		},
		{
			name:        "leading preamble ignored",
			input:       "Here is your rating.\n\nTone: 90/100\nFeedback: Warm.",
			wantScores:  map[string]int{"tone": 90},
			wantOverall: 90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseString(tt.input)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantScores, got.Scores)
			assert.Equal(t, tt.wantOverall, got.OverallScore)
		})
	}
}

func TestParseFeedbackIsTrimmed(t *testing.T) {
	got, err := ParseString("Curiosity: 80/100\nFeedback:   Good questions.  \n")
	require.NoError(t, err)
	assert.Equal(t, "Good questions.", got.Feedback["curiosity"])
}

func TestParseRejectsNonText(t *testing.T) {
	got, err := Parse([]byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, ErrRatingParseFailure)
	assert.Nil(t, got)
}
