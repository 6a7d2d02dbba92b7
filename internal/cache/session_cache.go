package cache

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/jon4hz/gradeboard/internal/config"
	"github.com/jon4hz/gradeboard/internal/dashboard"
)

// Cache key prefixes.
const (
	SessionStateCachePrefix = "session-state-"
)

// SessionCache holds the dashboard state of every live session.
type SessionCache struct {
	StateCache *PrefixedCache[dashboard.State]
}

// NewSessionCache creates the session caches for the configured backend.
func NewSessionCache(cfg *config.CacheConfig) (*SessionCache, error) {
	if cfg == nil {
		cfg = &config.CacheConfig{Type: config.CacheTypeMemory}
	}
	log.Debug("Creating session cache", "type", cfg.Type)
	return &SessionCache{
		StateCache: NewPrefixedCache[dashboard.State](
			newCacheInstanceByType(cfg),
			cfg.Type,
			SessionStateCachePrefix,
		),
	}, nil
}

// ClearAll drops every cached session.
func (s *SessionCache) ClearAll(ctx context.Context) {
	if err := s.StateCache.Clear(ctx); err != nil {
		log.Errorf("failed to clear cache: %v", err)
	}
}

// Stats is the hit/miss summary of one named cache.
type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
	CacheType string `json:"cacheType"`
}

// GetStats returns the statistics of all session caches.
func (s *SessionCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     s.StateCache.GetStats(),
			CacheName: "session-state",
			CacheType: string(s.StateCache.GetType()),
		},
	}
}
