package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/mindgarden-backend/internal/logger"
	"github.com/yungbote/mindgarden-backend/internal/types"
)

// RollupCache is a best-effort read cache for the user rollup document. The
// app runs fine without it: every method is a no-op on a nil receiver and
// cache errors are logged, never surfaced.
type RollupCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*types.UserMetricsRollup, bool)
	Set(ctx context.Context, rollup *types.UserMetricsRollup)
	Invalidate(ctx context.Context, userID uuid.UUID)
	Close() error
}

type rollupCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewRollupCache(log *logger.Logger) (RollupCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &rollupCache{
		log: log.With("service", "RedisRollupCache"),
		rdb: rdb,
		ttl: 10 * time.Minute,
	}, nil
}

func rollupKey(userID uuid.UUID) string {
	return "rollup:" + userID.String()
}

func (c *rollupCache) Get(ctx context.Context, userID uuid.UUID) (*types.UserMetricsRollup, bool) {
	if c == nil || userID == uuid.Nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, rollupKey(userID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Debug("Rollup cache read failed", "error", err)
		}
		return nil, false
	}
	var rollup types.UserMetricsRollup
	if err := json.Unmarshal(raw, &rollup); err != nil {
		c.log.Debug("Rollup cache entry not parseable, dropping", "error", err)
		_ = c.rdb.Del(ctx, rollupKey(userID)).Err()
		return nil, false
	}
	return &rollup, true
}

func (c *rollupCache) Set(ctx context.Context, rollup *types.UserMetricsRollup) {
	if c == nil || rollup == nil || rollup.UserID == uuid.Nil {
		return
	}
	raw, err := json.Marshal(rollup)
	if err != nil {
		c.log.Debug("Rollup cache marshal failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, rollupKey(rollup.UserID), raw, c.ttl).Err(); err != nil {
		c.log.Debug("Rollup cache write failed", "error", err)
	}
}

func (c *rollupCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c == nil || userID == uuid.Nil {
		return
	}
	if err := c.rdb.Del(ctx, rollupKey(userID)).Err(); err != nil {
		c.log.Debug("Rollup cache invalidate failed", "error", err)
	}
}

func (c *rollupCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
