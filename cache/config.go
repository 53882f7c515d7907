package cache

import (
	"time"

	"github.com/goliatone/go-campaign-client/internal/cacheinfra"
	"go.uber.org/zap"
)

// NoExpiry is the effective TTL of a zero Config.TTL: entries stay until they
// are invalidated.
const NoExpiry = cacheinfra.NoExpiry

// Config sizes the store behind the query cache. The zero TTL keeps query
// results until a mutation invalidates them.
type Config = cacheinfra.Config

// EarlyRefreshConfig enables sturdyc background refreshes. Only valid with a
// finite TTL.
type EarlyRefreshConfig = cacheinfra.EarlyRefreshConfig

// ConfigError names the offending Config field.
type ConfigError = cacheinfra.ConfigError

// DefaultConfig returns a Config with unbounded staleness and no background
// refreshes.
func DefaultConfig() Config {
	return cacheinfra.DefaultConfig()
}

// ExpiringConfig returns DefaultConfig with a finite TTL, for callers that
// tolerate results going stale on a timer as well as on invalidation.
func ExpiringConfig(ttl time.Duration) Config {
	cfg := cacheinfra.DefaultConfig()
	cfg.TTL = ttl
	return cfg
}

// NewCacheService constructs the sturdyc backed cache service. A nil logger
// disables logging.
func NewCacheService(cfg Config, logger *zap.Logger) (CacheService, error) {
	svc, err := cacheinfra.NewSturdycService(cfg, logger)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
