package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	before := time.Now()
	e := New(TypeRatingCompleted, nil)

	assert.Equal(t, TypeRatingCompleted, e.EventType())
	assert.NotNil(t, e.Payload())
	assert.False(t, e.Timestamp().Before(before))
}
