// Package cache provides the Redis-backed summary cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rangelog/internal/engagement/models"
	platformredis "rangelog/internal/platform/redis"
	id "rangelog/pkg/domain"
)

// SummaryCache stores per-owner summaries as JSON blobs with a TTL.
type SummaryCache struct {
	client *platformredis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *platformredis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

func summaryKey(owner id.OwnerID) string {
	return "rangelog:summary:" + string(owner)
}

func (c *SummaryCache) Get(ctx context.Context, owner id.OwnerID) (*models.Summary, bool, error) {
	raw, err := c.client.Get(ctx, summaryKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read summary cache: %w", err)
	}
	var summary models.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false, fmt.Errorf("decode cached summary: %w", err)
	}
	return &summary, true, nil
}

func (c *SummaryCache) Set(ctx context.Context, owner id.OwnerID, summary *models.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(owner), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write summary cache: %w", err)
	}
	return nil
}

func (c *SummaryCache) Invalidate(ctx context.Context, owner id.OwnerID) error {
	if err := c.client.Del(ctx, summaryKey(owner)).Err(); err != nil {
		return fmt.Errorf("invalidate summary cache: %w", err)
	}
	return nil
}
