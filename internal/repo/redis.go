package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis holds the shared client used for cross-replica counters such as rate limits.
type Redis struct{ C *redis.Client }

// NewRedis connects and pings addr. The client is returned even when the ping fails so
// callers can decide whether Redis is required.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	r := &Redis{C: redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     20,
	})}
	if err := r.Ping(ctx); err != nil {
		return r, fmt.Errorf("redis %s: %w", addr, err)
	}
	return r, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.C.Ping(ctx).Err()
}

func (r *Redis) Close() error { return r.C.Close() }
