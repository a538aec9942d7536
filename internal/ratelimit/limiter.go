// Package ratelimit throttles mutating requests per caller.
package ratelimit

import "context"

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
