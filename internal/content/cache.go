package content

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "pixeliz:rounds:"

// Cached keeps the last complete load of a slow source in redis. Redis
// problems never fail a load; they only cost a refetch.
type Cached struct {
	inner Source
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewCached(inner Source, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *Cached {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) key() string { return cacheKeyPrefix + c.inner.Name() }

func (c *Cached) Load(ctx context.Context) ([]engine.RoundDefinition, error) {
	data, err := c.rdb.Get(ctx, c.key()).Bytes()
	switch {
	case err == nil:
		var rounds []engine.RoundDefinition
		if jerr := json.Unmarshal(data, &rounds); jerr == nil && len(rounds) > 0 {
			c.log.Debug("rounds served from cache", zap.String("source", c.Name()), zap.Int("count", len(rounds)))
			return rounds, nil
		}
	case !errors.Is(err, redis.Nil):
		c.log.Debug("round cache unavailable", zap.String("source", c.Name()), zap.Error(err))
	}

	rounds, err := c.inner.Load(ctx)
	if err != nil || len(rounds) == 0 {
		return rounds, err
	}

	data, jerr := json.Marshal(rounds)
	if jerr != nil {
		return rounds, nil
	}
	if serr := c.rdb.Set(ctx, c.key(), data, c.ttl).Err(); serr != nil {
		c.log.Debug("round cache write failed", zap.String("source", c.Name()), zap.Error(serr))
	}
	return rounds, nil
}
