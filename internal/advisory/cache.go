package advisory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"dealdesk/internal/advisory/metrics"
	platformredis "dealdesk/internal/platform/redis"
)

// CachedAnalyzer memoizes advisories in Redis keyed by clause hash, so
// re-submitting the same clause does not burn another model call. Fallback
// advisories are never cached; a later attempt may succeed.
type CachedAnalyzer struct {
	inner   Analyzer
	redis   *platformredis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewCachedAnalyzer wraps inner with a Redis cache. Returns inner unchanged
// when Redis is not configured.
func NewCachedAnalyzer(inner Analyzer, redis *platformredis.Client, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) Analyzer {
	if redis == nil {
		return inner
	}
	return &CachedAnalyzer{inner: inner, redis: redis, ttl: ttl, logger: logger, metrics: m}
}

func cacheKey(clauseText string) string {
	sum := sha256.Sum256([]byte(clauseText))
	return "advisory:clause:" + hex.EncodeToString(sum[:])
}

// Analyze serves a cached advisory when present, otherwise delegates and
// stores the result. Cache failures degrade to a plain delegate call.
func (c *CachedAnalyzer) Analyze(ctx context.Context, clauseText string) ClauseAdvisory {
	key := cacheKey(clauseText)

	if raw, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var adv ClauseAdvisory
		if err := json.Unmarshal(raw, &adv); err == nil {
			c.metrics.IncrementAnalyses("cache_hit")
			return adv
		}
		c.logger.WarnContext(ctx, "corrupt advisory cache entry, re-analyzing", "key", key)
	}

	adv := c.inner.Analyze(ctx, clauseText)
	if adv.Error != "" {
		return adv
	}

	if raw, err := json.Marshal(adv); err == nil {
		if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "advisory cache write failed", "error", err)
		}
	}
	return adv
}
