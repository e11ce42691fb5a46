package ratelimit

import "context"

type Limiter interface {
	// Limit 判断key是否应该限流
	Limit(ctx context.Context, key string) (bool, error)
}
