package auth

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/NewsFlow/services/sentinel-service/config"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/registry"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/session"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Module provides the sign-in flow for fx DI
var Module = fx.Module("auth",
	fx.Provide(NewFlowFx),
)

// NewFlowFx creates the sign-in flow with its cleanup loop for fx DI
func NewFlowFx(
	lc fx.Lifecycle,
	platform domain.Platform,
	reg *registry.Registry,
	supervisor *session.Supervisor,
	persister domain.Persister,
	authCfg *config.AuthConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Flow {
	store := NewPendingStore(authCfg.PendingTTL, authCfg.CleanupInterval, logger)
	flow := NewFlow(platform, reg, supervisor, persister, store, logger, m)

	// Pending sign-ins are abandoned before an account is removed
	reg.OnDetach(flow.Cancel)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			store.Start(flow.Expire)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			closed := flow.Shutdown()
			logger.Info().Int("closed", closed).Msg("Pending sign-ins closed")
			return nil
		},
	})

	return flow
}
