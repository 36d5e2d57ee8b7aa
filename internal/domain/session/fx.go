package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/NewsFlow/services/sentinel-service/config"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/registry"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/deletion"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/cache"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

const forgetTimeout = 30 * time.Second

// Module provides the session supervisor for fx DI
var Module = fx.Module("session",
	fx.Provide(NewSupervisorFx),
)

// SupervisorParams defines parameters for Supervisor with optional collaborators
type SupervisorParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Platform   domain.Platform
	Registry   *registry.Registry
	Cache      *cache.MessageCache
	Reporter   *deletion.Reporter
	Persister  domain.Persister
	Publisher  domain.EventPublisher `optional:"true"`
	SessionCfg *config.SessionConfig
	ReportCfg  *config.ReportConfig
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
}

// NewSupervisorFx creates the supervisor, ties it to account removal and starts
// workers for authorized accounts once state is restored
func NewSupervisorFx(p SupervisorParams) *Supervisor {
	deps := Deps{
		Registry:  p.Registry,
		Cache:     p.Cache,
		Reporter:  p.Reporter,
		Persister: p.Persister,
		Publisher: p.Publisher,
		Retention: p.Cache.Retention(),
		Zone:      domain.ReportZone(p.ReportCfg.UTCOffsetHours),
		Logger:    p.Logger,
		Metrics:   p.Metrics,
	}

	supervisor := NewSupervisor(p.Platform, deps, Policy{
		ReconnectBase:        p.SessionCfg.ReconnectBase,
		ReconnectMax:         p.SessionCfg.ReconnectMax,
		MaxReconnectAttempts: p.SessionCfg.MaxReconnectAttempts,
		StableAfter:          p.SessionCfg.StableAfter,
		MaxConcurrentConnect: p.SessionCfg.MaxConcurrentConnect,
	})

	p.Registry.OnDetach(supervisor.Stop)
	p.Registry.OnPurge(func(name string) {
		p.Cache.DropAccount(name)

		ctx, cancel := context.WithTimeout(context.Background(), forgetTimeout)
		defer cancel()
		if err := p.Platform.Forget(ctx, name); err != nil {
			p.Logger.Warn().Err(err).Str("account", name).Msg("failed to delete stored session")
		}
	})

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			started := supervisor.StartAll(ctx)
			p.Logger.Info().
				Int("started", started).
				Int("total", p.Registry.Count()).
				Msg("Session workers started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return supervisor.StopAll(ctx)
		},
	})

	return supervisor
}
