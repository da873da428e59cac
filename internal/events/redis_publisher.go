package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher pushes events as JSON onto a Redis list for downstream
// consumers. Consumers pop from the opposite end (BRPOP).
type RedisPublisher struct {
	rdb *redis.Client
	key string
}

// NewRedisPublisher creates a publisher targeting the list at key.
func NewRedisPublisher(rdb *redis.Client, key string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, key: key}
}

// Send serializes event and LPUSHes it.
func (p *RedisPublisher) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.rdb.LPush(ctx, p.key, body).Err(); err != nil {
		return fmt.Errorf("redis LPUSH %s: %w", p.key, err)
	}
	return nil
}
