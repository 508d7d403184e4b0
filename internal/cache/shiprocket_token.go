package cache

import (
	"context"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/shipping/shiprocket"
)

// ShiprocketTokenStore 基于 Redis 的 Shiprocket 令牌缓存，多实例共享同一令牌
type ShiprocketTokenStore struct {
	key string
	now func() time.Time
}

// NewShiprocketTokenStore 创建 Redis 令牌缓存
func NewShiprocketTokenStore() *ShiprocketTokenStore {
	return &ShiprocketTokenStore{
		key: constants.CacheKeyShiprocketToken,
		now: time.Now,
	}
}

// Get 读取令牌
func (s *ShiprocketTokenStore) Get(ctx context.Context) (shiprocket.Token, bool, error) {
	var token shiprocket.Token
	ok, err := GetJSON(ctx, s.key, &token)
	if err != nil || !ok {
		return shiprocket.Token{}, false, err
	}
	return token, true, nil
}

// Set 写入令牌，Redis 过期时间与令牌有效期一致
func (s *ShiprocketTokenStore) Set(ctx context.Context, token shiprocket.Token) error {
	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, s.key, token, ttl)
}

// Invalidate 清除令牌
func (s *ShiprocketTokenStore) Invalidate(ctx context.Context) error {
	return Del(ctx, s.key)
}

// NewShiprocketTokenCache Redis 可用时返回共享缓存，否则退回进程内缓存
func NewShiprocketTokenCache() shiprocket.TokenCache {
	if Enabled() {
		return NewShiprocketTokenStore()
	}
	return shiprocket.NewMemoryTokenCache()
}
