package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/pkg/constants"
	"github.com/interview-prep/judge/pkg/solution"
)

const problemKeyPrefix = "judge:problem:"

type cachedProblemRepository struct {
	next   ProblemRepository
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewCachedProblemRepository puts a read-through Redis cache in front of
// next. Cache failures are logged and fall through to next.
func NewCachedProblemRepository(next ProblemRepository, client redis.Cmdable, ttl time.Duration) ProblemRepository {
	if ttl <= 0 {
		ttl = time.Duration(constants.DefaultProblemCacheTTLSec) * time.Second
	}
	return &cachedProblemRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.NewNamedLogger("problem-cache"),
	}
}

func (c *cachedProblemRepository) GetProblem(ctx context.Context, problemID string) (*solution.Problem, error) {
	key := problemKey(problemID)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p solution.Problem
		if jsonErr := json.Unmarshal(data, &p); jsonErr == nil {
			return &p, nil
		}
		c.logger.Warnf("Dropping corrupt cache entry %s", key)
		c.invalidate(ctx, problemID)
	case !errors.Is(err, redis.Nil):
		c.logger.Warnf("Cache lookup for %s failed: %s", key, err)
	}

	p, err := c.next.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.Warnf("Failed to cache problem %s: %s", problemID, err)
		}
	}
	return p, nil
}

func (c *cachedProblemRepository) SaveProblem(ctx context.Context, problem *solution.Problem) error {
	if err := c.next.SaveProblem(ctx, problem); err != nil {
		return err
	}
	c.invalidate(ctx, problem.ID)
	return nil
}

func (c *cachedProblemRepository) IncrementCounters(ctx context.Context, problemID string, accepted bool) error {
	if err := c.next.IncrementCounters(ctx, problemID, accepted); err != nil {
		return err
	}
	c.invalidate(ctx, problemID)
	return nil
}

func (c *cachedProblemRepository) invalidate(ctx context.Context, problemID string) {
	if err := c.client.Del(ctx, problemKey(problemID)).Err(); err != nil {
		c.logger.Warnf("Failed to invalidate cached problem %s: %s", problemID, err)
	}
}

func problemKey(problemID string) string {
	return problemKeyPrefix + problemID
}
