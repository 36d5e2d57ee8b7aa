package s3

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/NewsFlow/services/sentinel-service/config"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Module provides the S3/MinIO media archive for FX
var Module = fx.Module("s3",
	fx.Provide(NewArchiveFx),
)

// NewArchiveFx creates the media archive. It returns nil when no endpoint is configured.
func NewArchiveFx(
	lc fx.Lifecycle,
	s3Cfg *config.S3Config,
	logger zerolog.Logger,
	m *metrics.Metrics,
) (domain.MediaArchive, error) {
	if !s3Cfg.Enabled() {
		logger.Info().Msg("S3 endpoint not configured, media archiving disabled")
		return nil, nil
	}

	archive, err := NewArchive(&Config{
		Endpoint:  s3Cfg.Endpoint,
		AccessKey: s3Cfg.AccessKey,
		SecretKey: s3Cfg.SecretKey,
		Bucket:    s3Cfg.Bucket,
		UseSSL:    s3Cfg.UseSSL,
	}, logger.With().Str("component", "s3-archive").Logger(), m)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info().Msg("initializing S3/MinIO archive...")
			return archive.EnsureBucket(ctx)
		},
	})

	return archive, nil
}
