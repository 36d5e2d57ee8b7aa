package infrastructure

import (
	"go.uber.org/fx"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/bot"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/cache"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/database"
	httpfx "github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/http"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/kafka"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/logger"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/persistence"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/s3"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/telegram"
)

// Module aggregates all infrastructure modules
var Module = fx.Module("infrastructure",
	logger.Module,
	database.Module, // Must be before telegram and persistence (both depend on *gorm.DB)
	metrics.Module,
	persistence.Module,
	telegram.Module,
	bot.Module,
	cache.Module,
	kafka.Module,
	s3.Module,
	httpfx.Module,
)
