package deletion

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/NewsFlow/services/sentinel-service/config"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Module provides the deletion reporter for fx DI
var Module = fx.Module("deletion",
	fx.Provide(NewReporterFx),
)

// ReporterParams defines parameters for Reporter with optional collaborators
type ReporterParams struct {
	fx.In

	Sender      domain.Sender
	Archive     domain.MediaArchive   `optional:"true"`
	Publisher   domain.EventPublisher `optional:"true"`
	TelegramCfg *config.TelegramConfig
	ReportCfg   *config.ReportConfig
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// NewReporterFx creates Reporter for fx DI
func NewReporterFx(p ReporterParams) *Reporter {
	return NewReporter(
		p.Sender,
		p.Archive,
		p.Publisher,
		p.TelegramCfg.MediaTempDir,
		domain.ReportZone(p.ReportCfg.UTCOffsetHours),
		p.Logger,
		p.Metrics,
	)
}
