package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultSeatMapTTL = 5 * time.Second

// RedisSeatMapCache serves availability reads. Entries are short-lived and
// dropped on every ledger transition of their show.
type RedisSeatMapCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisSeatMapCache(client redis.UniversalClient, ttl time.Duration) *RedisSeatMapCache {
	if ttl <= 0 {
		ttl = DefaultSeatMapTTL
	}

	return &RedisSeatMapCache{
		client: client,
		ttl:    ttl,
	}
}

func seatMapKey(showID int) string {
	return fmt.Sprintf("seatmap:%d", showID)
}

func (c *RedisSeatMapCache) Get(ctx context.Context, showID int) (*domain.SeatMap, error) {
	data, err := c.client.Get(ctx, seatMapKey(showID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var m domain.SeatMap
	err = json.Unmarshal([]byte(data), &m)
	if err != nil {
		return nil, fmt.Errorf("decode cached seat map of show %d: %w", showID, err)
	}

	return &m, nil
}

func (c *RedisSeatMapCache) Set(ctx context.Context, m *domain.SeatMap) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, seatMapKey(m.ShowID), string(data), c.ttl).Err()
}

func (c *RedisSeatMapCache) Invalidate(ctx context.Context, showID int) error {
	return c.client.Del(ctx, seatMapKey(showID)).Err()
}
