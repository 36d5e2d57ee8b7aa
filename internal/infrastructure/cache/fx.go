package cache

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/NewsFlow/services/sentinel-service/config"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Module provides the message cache for fx DI
var Module = fx.Module("cache",
	fx.Provide(NewMessageCacheFx),
	fx.Invoke(registerCacheLifecycle),
)

// NewMessageCacheFx creates MessageCache for fx DI
func NewMessageCacheFx(cacheCfg *config.CacheConfig, logger zerolog.Logger) *MessageCache {
	retention := DefaultRetention
	if cacheCfg != nil && cacheCfg.Retention > 0 {
		retention = cacheCfg.Retention
	}
	return NewMessageCache(retention, logger)
}

func registerCacheLifecycle(
	lc fx.Lifecycle,
	cache *MessageCache,
	cacheCfg *config.CacheConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) {
	janitor := NewJanitor(cache, m, cacheCfg.SweepInterval, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			janitor.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			janitor.Stop()
			return nil
		},
	})
}
