package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis is a fixed-window counter shared by every API replica.
type Redis struct {
	c      *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedis(c *redis.Client, limitPerMinute int) *Redis {
	if limitPerMinute <= 0 {
		limitPerMinute = 60
	}
	return &Redis{c: c, limit: limitPerMinute, window: time.Minute, prefix: "rl:"}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	slot := time.Now().Unix() / int64(r.window/time.Second)
	k := fmt.Sprintf("%s%s:%d", r.prefix, key, slot)

	pipe := r.c.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, r.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(r.limit), nil
}
