package serverutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("writer-1", "secret", time.Hour)
	require.NoError(t, err)

	userID, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "writer-1", userID)
}

func TestParseTokenRejects(t *testing.T) {
	expired, err := IssueToken("writer-1", "secret", -time.Hour)
	require.NoError(t, err)
	valid, err := IssueToken("writer-1", "secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
		want   error
	}{
		{"empty", "", "secret", ErrMissingToken},
		{"garbage", "not-a-token", "secret", ErrInvalidToken},
		{"wrong secret", valid, "other", ErrInvalidToken},
		{"expired", expired, "secret", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
