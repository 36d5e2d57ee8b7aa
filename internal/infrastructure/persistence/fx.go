package persistence

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/Conte777/NewsFlow/services/sentinel-service/config"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Module provides the snapshot store and the single writer for fx DI
var Module = fx.Module("persistence",
	fx.Provide(
		NewStoreFx,
		NewWriterFx,
		func(w *Writer) domain.Persister { return w },
	),
)

// NewStoreFx provides Store as domain.SnapshotStore
func NewStoreFx(db *gorm.DB, logger zerolog.Logger) domain.SnapshotStore {
	return NewStore(db, logger)
}

// NewWriterFx creates the writer with fx lifecycle management.
// The writer stops after every component that persists through it.
func NewWriterFx(
	lc fx.Lifecycle,
	store domain.SnapshotStore,
	source domain.SnapshotSource,
	cfg *config.PersistenceConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Writer {
	w := NewWriter(store, source, WriterConfig{
		SaveAttempts: cfg.SaveAttempts,
		RetryDelay:   cfg.RetryDelay,
		SaveTimeout:  cfg.SaveTimeout,
	}, logger, m)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			w.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			w.Stop()
			return nil
		},
	})

	return w
}
