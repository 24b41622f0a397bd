package geocode

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on Redis so suggestion lookups are shared
// across server instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	ctx    context.Context
}

func NewRedisCache(addr, password string, ttl time.Duration) *RedisCache {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisCache{client: c, ttl: ttl, ctx: context.Background()}
}

func (c *RedisCache) Get(query string) ([]Feature, bool) {
	raw, err := c.client.Get(c.ctx, cacheKey(query)).Bytes()
	if err != nil {
		return nil, false
	}
	var features []Feature
	if err := json.Unmarshal(raw, &features); err != nil {
		return nil, false
	}
	return features, true
}

func (c *RedisCache) Set(query string, features []Feature) {
	b, err := json.Marshal(features)
	if err != nil {
		return
	}
	_ = c.client.Set(c.ctx, cacheKey(query), b, c.ttl).Err()
}

func cacheKey(query string) string { return "geocode:q:" + query }
