// Package app contains application bootstrap
package app

import (
	"go.uber.org/fx"

	"github.com/Conte777/NewsFlow/services/sentinel-service/config"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/auth"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/deletion"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/report"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/session"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure"
)

// CreateApp creates the fx application options
func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(config.Out),
		infrastructure.Module,
		// Domain modules
		account.Module,
		deletion.Module,
		session.Module,
		auth.Module,
		report.Module,
	)
}
