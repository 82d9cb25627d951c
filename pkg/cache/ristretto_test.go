package cache

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRistrettoCache(t *testing.T) {
	cacheInterface, err := NewRistrettoCache(&RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	defer cacheInterface.Close()

	cache := cacheInterface.(*RistrettoCache)

	t.Run("set-and-get", func(t *testing.T) {
		success := cache.Set("pair-KXBTC", "hint", 1*time.Hour)
		if !success {
			t.Error("expected Set to succeed")
		}

		cache.Wait()

		retrieved, found := cache.Get("pair-KXBTC")
		if !found {
			t.Error("expected key to be found")
		}
		if retrieved != "hint" {
			t.Errorf("expected %q, got %q", "hint", retrieved)
		}
	})

	t.Run("get-missing-key", func(t *testing.T) {
		_, found := cache.Get("never-set")
		if found {
			t.Error("expected missing key to not be found")
		}
	})

	t.Run("delete", func(t *testing.T) {
		cache.Set("doomed", 1, time.Hour)
		cache.Wait()
		cache.Delete("doomed")
		cache.Wait()

		_, found := cache.Get("doomed")
		if found {
			t.Error("expected deleted key to not be found")
		}
	})

	t.Run("clear", func(t *testing.T) {
		cache.Set("a", 1, time.Hour)
		cache.Set("b", 2, time.Hour)
		cache.Wait()
		cache.Clear()

		if _, found := cache.Get("a"); found {
			t.Error("expected cache to be empty after Clear")
		}
		if _, found := cache.Get("b"); found {
			t.Error("expected cache to be empty after Clear")
		}
	})

	t.Run("ttl-expiry", func(t *testing.T) {
		cache.Set("short-lived", 1, 50*time.Millisecond)
		cache.Wait()
		time.Sleep(120 * time.Millisecond)

		if _, found := cache.Get("short-lived"); found {
			t.Error("expected key to expire")
		}
	})
}
