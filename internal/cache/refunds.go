package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Longer than any provider keeps redelivering a notification.
const DefaultRefundTTL = 30 * 24 * time.Hour

// RedisRefundLog records refunded payments with SET NX so every instance
// agrees on which payment has already been compensated.
type RedisRefundLog struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisRefundLog(client redis.UniversalClient, ttl time.Duration) *RedisRefundLog {
	if ttl <= 0 {
		ttl = DefaultRefundTTL
	}

	return &RedisRefundLog{
		client: client,
		ttl:    ttl,
	}
}

func refundKey(paymentRef string) string {
	return "refund:" + paymentRef
}

func (l *RedisRefundLog) MarkRefunded(ctx context.Context, paymentRef string) (bool, error) {
	return l.client.SetNX(ctx, refundKey(paymentRef), 1, l.ttl).Result()
}

func (l *RedisRefundLog) Forget(ctx context.Context, paymentRef string) error {
	return l.client.Del(ctx, refundKey(paymentRef)).Err()
}
