package cache

import (
	"context"
	"testing"
	"time"

	"github.com/storefront-next/internal/shipping/shiprocket"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	_ = Close()
	ctx := context.Background()
	if Enabled() {
		t.Fatalf("cache should be disabled without InitRedis")
	}
	ok, err := SetNX(ctx, "notification:dedupe:x", "1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("disabled SetNX should always acquire, got ok=%v err=%v", ok, err)
	}
	var dest map[string]string
	found, err := GetJSON(ctx, "missing", &dest)
	if err != nil || found {
		t.Fatalf("disabled GetJSON should miss, got found=%v err=%v", found, err)
	}
}

func TestNewShiprocketTokenCacheFallsBackToMemory(t *testing.T) {
	_ = Close()
	tokenCache := NewShiprocketTokenCache()
	if _, ok := tokenCache.(*shiprocket.MemoryTokenCache); !ok {
		t.Fatalf("want memory token cache when redis disabled, got %T", tokenCache)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	old := redisPrefix
	t.Cleanup(func() { redisPrefix = old })
	redisPrefix = "sf"
	if got := buildKey(" shiprocket:token "); got != "sf:shiprocket:token" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := buildKey(""); got != "sf" {
		t.Fatalf("unexpected empty key: %s", got)
	}
}
