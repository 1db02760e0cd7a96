package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"pego/domain/model"
)

const activeRoundKey = "pego:round:active"

// RoundCache keeps the active round hot; uploads hit it on every initiate.
type RoundCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoundCache(client *redis.Client) *RoundCache {
	return &RoundCache{client: client, ttl: 30 * time.Second}
}

func (c *RoundCache) GetActive(ctx context.Context) (*model.CompetitionRound, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, activeRoundKey).Bytes()
	if err != nil {
		return nil, false
	}
	var round model.CompetitionRound
	if err := json.Unmarshal(raw, &round); err != nil {
		return nil, false
	}
	return &round, true
}

func (c *RoundCache) SetActive(ctx context.Context, round *model.CompetitionRound) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(round)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, activeRoundKey, raw, c.ttl).Err()
}

func (c *RoundCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	_ = c.client.Del(ctx, activeRoundKey).Err()
}
