package shiprocket

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Token Shiprocket API 访问令牌
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid 令牌在 now 时刻是否可用
func (t Token) Valid(now time.Time) bool {
	return strings.TrimSpace(t.Value) != "" && now.Before(t.ExpiresAt)
}

// TokenCache 令牌缓存
type TokenCache interface {
	Get(ctx context.Context) (Token, bool, error)
	Set(ctx context.Context, token Token) error
	Invalidate(ctx context.Context) error
}

// MemoryTokenCache 进程内令牌缓存
type MemoryTokenCache struct {
	mu    sync.RWMutex
	token Token
	set   bool
}

// NewMemoryTokenCache 创建进程内令牌缓存
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

// Get 读取令牌
func (c *MemoryTokenCache) Get(_ context.Context) (Token, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.set, nil
}

// Set 写入令牌
func (c *MemoryTokenCache) Set(_ context.Context, token Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.set = true
	return nil
}

// Invalidate 清除令牌
func (c *MemoryTokenCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = Token{}
	c.set = false
	return nil
}
