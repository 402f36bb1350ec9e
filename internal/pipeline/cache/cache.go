package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"launchpad/internal/pipeline"
	"launchpad/internal/pipeline/metrics"
	"launchpad/internal/pipeline/models"
	platformredis "launchpad/internal/platform/redis"
	id "launchpad/pkg/domain"
)

// RuleCache caches a program's rules in Redis in front of the store. Rules
// change rarely and are read on every evaluation, so the cache absorbs the
// hot path; any Redis failure falls through to the store.
type RuleCache struct {
	client  *platformredis.Client
	source  pipeline.RuleSource
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRuleCache(client *platformredis.Client, source pipeline.RuleSource, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *RuleCache {
	return &RuleCache{
		client:  client,
		source:  source,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

// RulesForProgram serves from Redis when possible and falls back to the
// underlying source on miss or error, repopulating the cache on the way out.
func (c *RuleCache) RulesForProgram(ctx context.Context, programID id.ProgramID) ([]*models.Rule, error) {
	key := ruleKey(programID)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var rules []*models.Rule
		if err := json.Unmarshal(payload, &rules); err == nil {
			c.metrics.RecordRuleCacheHit()
			return rules, nil
		}
		c.logger.WarnContext(ctx, "corrupt rule cache entry, falling back to store", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "rule cache read failed, falling back to store", "key", key, "error", err)
	}
	c.metrics.RecordRuleCacheMiss()

	rules, err := c.source.RulesForProgram(ctx, programID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(rules); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "rule cache write failed", "key", key, "error", err)
		}
	}
	return rules, nil
}

// Invalidate drops the cached rules for a program. Called after rule
// creation so the next evaluation sees the new rule.
func (c *RuleCache) Invalidate(ctx context.Context, programID id.ProgramID) error {
	if err := c.client.Del(ctx, ruleKey(programID)).Err(); err != nil {
		return fmt.Errorf("invalidate rule cache: %w", err)
	}
	return nil
}

func ruleKey(programID id.ProgramID) string {
	return "launchpad:rules:" + programID.String()
}
