package memory

import (
	"context"
	"time"

	"freewrite-assistant/internal/repository/contract"
	"freewrite-assistant/pkg/rating"

	"github.com/patrickmn/go-cache"
)

type RatingRepository struct {
	cache *cache.Cache
}

// NewRatingRepository keeps results for ttl and purges expired entries every ttl/6.
func NewRatingRepository(ttl time.Duration) contract.RatingRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RatingRepository{
		cache: cache.New(ttl, ttl/6),
	}
}

func (r *RatingRepository) Save(_ context.Context, threadID string, result *rating.Result) error {
	r.cache.Set(threadID, result, cache.DefaultExpiration)
	return nil
}

func (r *RatingRepository) FindByThread(_ context.Context, threadID string) (*rating.Result, bool, error) {
	if x, found := r.cache.Get(threadID); found {
		return x.(*rating.Result), true, nil
	}
	return nil, false, nil
}

func (r *RatingRepository) Delete(_ context.Context, threadID string) error {
	r.cache.Delete(threadID)
	return nil
}
