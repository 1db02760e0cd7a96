package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"pego/domain/model"
)

// LeaderboardCache stores the per-round ranking snapshot. Rankings are
// eventually consistent; the recompute ticker refreshes this entry.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: 60 * time.Second}
}

func key(roundID string) string { return "pego:leaderboard:" + roundID }

func (c *LeaderboardCache) Get(ctx context.Context, roundID string) ([]model.RankingEntry, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(roundID)).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []model.RankingEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *LeaderboardCache) Set(ctx context.Context, roundID string, entries []model.RankingEntry) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key(roundID), raw, c.ttl).Err()
}
