// Package account contains the account registry module
package account

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/NewsFlow/services/sentinel-service/config"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	httpDelivery "github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/delivery/http"
	telegramDelivery "github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/delivery/telegram"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/registry"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/usecase/business"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/auth"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/session"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/bot"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/http/server"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/persistence"
)

// Module provides the account registry, admin set, snapshot source and the operator surface for fx DI
var Module = fx.Module("account",
	fx.Provide(
		NewAdminSet,
		NewRegistryFx,
		NewSnapshotSource,
		NewUseCaseFx,
		provideTelegramHandlers,
		telegramDelivery.NewRouter,
		NewHTTPHandlerFx,
		httpDelivery.NewRouter,
	),
	fx.Invoke(registerRoutes),
)

// NewAdminSet creates the admin set seeded with the main admin
func NewAdminSet(telegramCfg *config.TelegramConfig, logger zerolog.Logger) *registry.AdminSet {
	return registry.NewAdminSet(telegramCfg.MainAdminID, logger)
}

// NewRegistryFx creates the account registry and restores persisted state on start.
// Components depending on the registry are constructed later, so their start hooks
// run after the state is loaded.
func NewRegistryFx(
	lc fx.Lifecycle,
	reportCfg *config.ReportConfig,
	admins *registry.AdminSet,
	store domain.SnapshotStore,
	logger zerolog.Logger,
) *registry.Registry {
	reg := registry.New(domain.ReportZone(reportCfg.UTCOffsetHours), logger)
	state := registry.NewState(reg, admins)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			snapshot, err := store.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load state: %w", err)
			}
			state.Restore(snapshot)

			logger.Info().
				Int("accounts", reg.Count()).
				Int("admins", len(admins.List())).
				Msg("State restored")
			return nil
		},
	})

	return reg
}

// NewSnapshotSource provides the combined durable state for the persistence writer
func NewSnapshotSource(reg *registry.Registry, admins *registry.AdminSet) domain.SnapshotSource {
	return registry.NewState(reg, admins)
}

// NewUseCaseFx creates the operator use case
func NewUseCaseFx(
	reg *registry.Registry,
	admins *registry.AdminSet,
	flow *auth.Flow,
	supervisor *session.Supervisor,
	sender domain.Sender,
	persister domain.Persister,
	logger zerolog.Logger,
) *business.UseCase {
	return business.NewUseCase(reg, admins, flow, supervisor, sender, persister, logger)
}

// provideTelegramHandlers creates command handlers replying through the raw bot
func provideTelegramHandlers(uc *business.UseCase, b *bot.Bot, logger zerolog.Logger) *telegramDelivery.Handlers {
	return telegramDelivery.NewHandlers(uc, b.Raw(), logger)
}

// NewHTTPHandlerFx creates the health and read-only API handler
func NewHTTPHandlerFx(
	uc *business.UseCase,
	supervisor *session.Supervisor,
	writer *persistence.Writer,
	logger zerolog.Logger,
) *httpDelivery.Handler {
	return httpDelivery.NewHandler(uc, supervisor, writer, logger.With().Str("component", "http_api").Logger())
}

// registerRoutes registers bot commands and HTTP routes
func registerRoutes(
	telegramRouter *telegramDelivery.Router,
	b *bot.Bot,
	httpRouter *httpDelivery.Router,
	srv *server.Server,
) {
	telegramRouter.RegisterRoutes(b.Raw())
	httpRouter.RegisterRoutes(srv.Router)
}
