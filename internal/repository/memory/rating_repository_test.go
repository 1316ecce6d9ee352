package memory

import (
	"context"
	"testing"
	"time"

	"freewrite-assistant/pkg/rating"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingRepositoryReplacesResult(t *testing.T) {
	ctx := context.Background()
	repo := NewRatingRepository(time.Minute)

	_, found, err := repo.FindByThread(ctx, "t-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Save(ctx, "t-1", &rating.Result{OverallScore: 40}))
	require.NoError(t, repo.Save(ctx, "t-1", &rating.Result{OverallScore: 70}))

	got, found, err := repo.FindByThread(ctx, "t-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 70, got.OverallScore)

	require.NoError(t, repo.Delete(ctx, "t-1"))
	_, found, _ = repo.FindByThread(ctx, "t-1")
	assert.False(t, found)
}

func TestRatingRepositoryExpires(t *testing.T) {
	ctx := context.Background()
	repo := NewRatingRepository(20 * time.Millisecond)

	require.NoError(t, repo.Save(ctx, "t-2", &rating.Result{}))
	time.Sleep(40 * time.Millisecond)

	_, found, err := repo.FindByThread(ctx, "t-2")
	require.NoError(t, err)
	assert.False(t, found)
}
