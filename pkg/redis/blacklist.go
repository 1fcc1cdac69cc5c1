package redis

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/dealer-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:"

// Blacklist stores revoked JWT IDs until their natural expiry.
type Blacklist struct {
	client redis.Cmdable
}

func NewBlacklist(client redis.Cmdable) *Blacklist {
	return &Blacklist{client: client}
}

func (b *Blacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	logger.Debug("Adding token to blacklist", map[string]interface{}{
		"expiry": ttl.String(),
	})

	if err := b.client.Set(ctx, blacklistPrefix+tokenID, "revoked", ttl).Err(); err != nil {
		logger.Error("Failed to blacklist token", err)
		return err
	}
	return nil
}

func (b *Blacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	val, err := b.client.Get(ctx, blacklistPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err)
		return false, err
	}
	return val == "revoked", nil
}
