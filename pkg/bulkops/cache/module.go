package cache

import (
	"go.uber.org/fx"

	config "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// NewCacheProvider selects the cache implementation from configuration.
// Unknown providers fall back to the in-process cache with a warning.
func NewCacheProvider(cfg *config.CacheConfig) Cache {
	switch cfg.Provider {
	case "redis":
		return NewRedisCache(cfg)
	case "memory", "":
		return NewMemoryCache()
	default:
		logger.Warnf("Unknown cache provider '%s'. Falling back to in-process cache.", cfg.Provider)
		return NewMemoryCache()
	}
}

// Module provides the Cache to Fx.
var Module = fx.Options(
	fx.Provide(NewCacheProvider),
)
