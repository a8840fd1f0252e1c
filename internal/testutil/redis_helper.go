package testutil

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ieraasyl/SavorViews/internal/database"
	"github.com/ieraasyl/SavorViews/pkg/cache"
	"github.com/ieraasyl/SavorViews/pkg/config"
	"github.com/redis/go-redis/v9"
)

// SetupMiniRedis creates a miniredis instance for testing
// Returns the miniredis server and a cleanup function
func SetupMiniRedis(t *testing.T) (*miniredis.Miniredis, func()) {
	t.Helper()

	mr := miniredis.RunT(t)

	cleanup := func() {
		mr.Close()
	}

	return mr, cleanup
}

// NewTestRedisDB creates a RedisDB connected to miniredis for testing
func NewTestRedisDB(t *testing.T, mr *miniredis.Miniredis) *database.RedisDB {
	t.Helper()

	cfg := &config.RedisConfig{
		Enabled:  true,
		Host:     mr.Host(),
		Port:     mr.Port(),
		PoolSize: 5,
	}

	db, err := database.NewRedisDB(cfg)
	if err != nil {
		t.Fatalf("Failed to create test Redis DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// NewTestRedisClient creates a Redis client connected to miniredis
func NewTestRedisClient(t *testing.T, mr *miniredis.Miniredis) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		DB:   0,
	})
	t.Cleanup(func() { client.Close() })

	return client
}

// NewTestTabStorage returns Redis-backed storage for tabID on miniredis.
// Two calls with the same tab ID see the same items, as a restarted
// client process would.
func NewTestTabStorage(t *testing.T, mr *miniredis.Miniredis, tabID string) *cache.TabStorage {
	t.Helper()
	return cache.NewTabStorage(cache.NewCache(NewTestRedisClient(t, mr)), tabID, time.Hour)
}

// FlushRedis clears all data from miniredis
func FlushRedis(t *testing.T, mr *miniredis.Miniredis) {
	t.Helper()
	mr.FlushAll()
}
