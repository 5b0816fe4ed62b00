package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "cart:"

// RedisCartStore clears customer carts held in Redis after settlement.
// DEL on a missing key is a no-op, which makes replayed settlements safe.
type RedisCartStore struct {
	client *redis.Client
}

// NewRedisCartStore creates a new RedisCartStore instance
func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{client: client}
}

func (s *RedisCartStore) Clear(ctx context.Context, storeID uint, orderNo string) error {
	key := fmt.Sprintf("%s%d:%s", cartKeyPrefix, storeID, orderNo)

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
