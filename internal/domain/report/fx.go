package report

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/NewsFlow/services/sentinel-service/config"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/registry"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Module provides the report scheduler for fx DI
var Module = fx.Module("report",
	fx.Provide(NewSchedulerFx),
	fx.Invoke(registerLifecycle),
)

// NewSchedulerFx creates Scheduler for fx DI
func NewSchedulerFx(
	reg *registry.Registry,
	sender domain.Sender,
	persister domain.Persister,
	reportCfg *config.ReportConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Scheduler {
	return NewScheduler(
		reg,
		sender,
		persister,
		domain.ReportZone(reportCfg.UTCOffsetHours),
		reportCfg.RolloverHour,
		reportCfg.RetryBackoff,
		logger,
		m,
	)
}

// registerLifecycle registers the scheduler with fx.Lifecycle
func registerLifecycle(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
}
