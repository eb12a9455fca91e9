package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/domain"
)

const ruleCacheKey = "automation:rules:active"

// CachedRuleSource serves the active rule set through a short-TTL Redis
// cache so per-event evaluation does not hit Postgres on every mutation,
// while admin edits still propagate within the TTL (or immediately via
// Invalidate). Any cache failure falls through to the database.
type CachedRuleSource struct {
	rules  RuleRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRuleSource builds the cached source. A nil client disables
// caching entirely.
func NewCachedRuleSource(rules RuleRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedRuleSource {
	return &CachedRuleSource{rules: rules, client: client, ttl: ttl, logger: logger}
}

// ActiveRules returns the active rule set, cache-first.
func (s *CachedRuleSource) ActiveRules(ctx context.Context) ([]domain.AutomationRule, error) {
	if s.client != nil && s.ttl > 0 {
		raw, err := s.client.Get(ctx, ruleCacheKey).Bytes()
		if err == nil {
			var cached []domain.AutomationRule
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			s.logger.Warn("discarding unreadable rule cache entry", zap.Error(err))
		} else if err != redis.Nil {
			s.logger.Warn("rule cache read failed", zap.Error(err))
		}
	}

	ruleSet, err := s.rules.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if s.client != nil && s.ttl > 0 {
		if raw, err := json.Marshal(ruleSet); err == nil {
			if err := s.client.Set(ctx, ruleCacheKey, raw, s.ttl).Err(); err != nil {
				s.logger.Warn("rule cache write failed", zap.Error(err))
			}
		}
	}
	return ruleSet, nil
}

// Invalidate drops the cached rule set after an admin edit.
func (s *CachedRuleSource) Invalidate(ctx context.Context) {
	if s.client == nil {
		return
	}
	if err := s.client.Del(ctx, ruleCacheKey).Err(); err != nil {
		s.logger.Warn("rule cache invalidation failed", zap.Error(err))
	}
}
