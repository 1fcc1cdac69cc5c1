package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// JSONCache stores values as JSON strings under a common key prefix.
type JSONCache struct {
	client redis.Cmdable
	prefix string
}

func NewJSONCache(client redis.Cmdable, prefix string) *JSONCache {
	return &JSONCache{client: client, prefix: prefix}
}

func (c *JSONCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *JSONCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

// DeletePrefix removes every key under prefix. SCAN keeps large keyspaces from
// blocking the server.
func (c *JSONCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, c.prefix+prefix+"*", scanBatch).Iterator()
	keys := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanBatch {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
