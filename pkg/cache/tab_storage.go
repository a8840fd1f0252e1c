package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// TabStorage is the durable, tab-scoped key/value record of the client.
// It mirrors browser sessionStorage: values survive a restart of the
// process that owns the tab and are never shared with another tab ID.
type TabStorage struct {
	cache *Cache
	tabID string
	ttl   time.Duration
}

// NewTabStorage returns storage scoped to tabID. Every write refreshes the
// item's TTL; a zero TTL keeps items until the tab is purged.
func NewTabStorage(cache *Cache, tabID string, ttl time.Duration) *TabStorage {
	return &TabStorage{
		cache: cache,
		tabID: tabID,
		ttl:   ttl,
	}
}

// GetItem returns the value stored under name and whether it was present.
func (s *TabStorage) GetItem(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.cache.Get(ctx, TabKey(s.tabID, name), &value)
	if errors.Is(err, ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetItem stores value under name.
func (s *TabStorage) SetItem(ctx context.Context, name, value string) error {
	return s.cache.Set(ctx, TabKey(s.tabID, name), value, s.ttl)
}

// RemoveItem deletes name. Removing a missing item is not an error.
func (s *TabStorage) RemoveItem(ctx context.Context, name string) error {
	return s.cache.Delete(ctx, TabKey(s.tabID, name))
}

// Purge drops every item of the tab, as closing a browser tab does.
func (s *TabStorage) Purge(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, TabPattern(s.tabID)); err != nil {
		return err
	}
	log.Info().Str("tab_id", s.tabID).Msg("Tab storage purged")
	return nil
}

// Ping checks that the backing store is reachable.
func (s *TabStorage) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}
