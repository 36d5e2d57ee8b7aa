package kafka

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/NewsFlow/services/sentinel-service/config"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Module provides the Kafka event publisher for fx DI
var Module = fx.Module("kafka",
	fx.Provide(NewPublisherFx),
)

// NewPublisherFx creates the event publisher. It returns nil when no brokers are configured.
func NewPublisherFx(
	lc fx.Lifecycle,
	kafkaCfg *config.KafkaConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) (domain.EventPublisher, error) {
	if !kafkaCfg.Enabled() {
		logger.Info().Msg("Kafka brokers not configured, event publishing disabled")
		return nil, nil
	}

	publisher, err := NewPublisher(PublisherConfig{
		Brokers:             kafkaCfg.Brokers,
		TopicNewDialog:      kafkaCfg.TopicNewDialog,
		TopicMessageDeleted: kafkaCfg.TopicMessageDeleted,
		Logger:              logger.With().Str("component", "kafka-publisher").Logger(),
		Metrics:             m,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})

	return publisher, nil
}
