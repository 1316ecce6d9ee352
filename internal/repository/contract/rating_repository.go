package contract

import (
	"context"

	"freewrite-assistant/pkg/rating"
)

// RatingRepository keeps the latest rating result per thread. Saving replaces
// any earlier result for the same thread.
type RatingRepository interface {
	Save(ctx context.Context, threadID string, result *rating.Result) error
	FindByThread(ctx context.Context, threadID string) (*rating.Result, bool, error)
	Delete(ctx context.Context, threadID string) error
}
