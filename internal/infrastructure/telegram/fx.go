package telegram

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/Conte777/NewsFlow/services/sentinel-service/config"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Module provides the MTProto platform for fx DI
var Module = fx.Module("telegram",
	fx.Provide(NewPlatformFx),
)

// NewPlatformFx creates the platform used by sign-in and session workers
func NewPlatformFx(
	db *gorm.DB,
	sessionCfg *config.SessionConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) domain.Platform {
	return NewPlatform(db, sessionCfg.EventBuffer, logger, m)
}
