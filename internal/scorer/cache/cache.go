package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/scorer/executor"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "score:"

// ScoreCache memoises computed scores in Redis. Concurrent requests for the
// same key are collapsed through singleflight so the score is computed once.
type ScoreCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *ScoreCache {
	return &ScoreCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "score-cache"),
	}
}

func (c *ScoreCache) Get(ctx context.Context, metric, candidate string, references []string) (*executor.ScoreResult, bool) {
	key := c.buildKey(metric, candidate, references)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			c.misses.Add(1)
			return nil, false
		}
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	var result executor.ScoreResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "err", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "metric", metric, "key", key)
	return &result, true
}

func (c *ScoreCache) Set(ctx context.Context, metric, candidate string, references []string, result *executor.ScoreResult) {
	key := c.buildKey(metric, candidate, references)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *ScoreCache) GetOrCompute(
	ctx context.Context,
	metric, candidate string,
	references []string,
	computeFn func() (*executor.ScoreResult, error),
) (*executor.ScoreResult, bool, error) {
	if result, ok := c.Get(ctx, metric, candidate, references); ok {
		return result, true, nil
	}
	key := c.buildKey(metric, candidate, references)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, metric, candidate, references); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, metric, candidate, references, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.ScoreResult), false, nil
}

func (c *ScoreCache) Invalidate(ctx context.Context) error {
	pattern := keyPrefix + "*"
	deleted, err := c.client.FlushByPattern(ctx, pattern)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *ScoreCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the metric spec, candidate, and reference set into a fixed
// size key. References are sorted first: max and average aggregation are both
// order-insensitive, so permuted reference lists share a cache entry.
func (c *ScoreCache) buildKey(metric, candidate string, references []string) string {
	refs := make([]string, len(references))
	copy(refs, references)
	sort.Strings(refs)
	raw := metric + "\x1f" + candidate + "\x1f" + strings.Join(refs, "\x1f")
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
