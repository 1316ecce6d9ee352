package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"freewrite-assistant/internal/repository/contract"
	"freewrite-assistant/pkg/rating"

	"github.com/redis/go-redis/v9"
)

const ratingKeyPrefix = "assistant:rating:"

type RatingRepositoryRedis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRatingRepositoryRedis shares results across assistant instances.
func NewRatingRepositoryRedis(rdb *redis.Client, ttl time.Duration) contract.RatingRepository {
	return &RatingRepositoryRedis{rdb: rdb, ttl: ttl}
}

func ratingKey(threadID string) string {
	return ratingKeyPrefix + threadID
}

func (r *RatingRepositoryRedis) Save(ctx context.Context, threadID string, result *rating.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode rating: %w", err)
	}
	if err := r.rdb.Set(ctx, ratingKey(threadID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save rating for thread %s: %w", threadID, err)
	}
	return nil
}

func (r *RatingRepositoryRedis) FindByThread(ctx context.Context, threadID string) (*rating.Result, bool, error) {
	payload, err := r.rdb.Get(ctx, ratingKey(threadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load rating for thread %s: %w", threadID, err)
	}

	var result rating.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("failed to decode rating for thread %s: %w", threadID, err)
	}
	return &result, true, nil
}

func (r *RatingRepositoryRedis) Delete(ctx context.Context, threadID string) error {
	return r.rdb.Del(ctx, ratingKey(threadID)).Err()
}
