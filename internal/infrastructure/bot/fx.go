package bot

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/NewsFlow/services/sentinel-service/config"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

// Module provides Telegram bot and report sender for fx dependency injection
var Module = fx.Module("bot",
	fx.Provide(
		provideBot,
		provideSender,
	),
)

// provideBot creates Telegram bot from config and polls updates while the app runs
func provideBot(lc fx.Lifecycle, cfg *config.TelegramConfig, logger zerolog.Logger) (*Bot, error) {
	bot, err := NewBot(cfg.BotToken, logger)
	if err != nil {
		return nil, err
	}

	var (
		cancel context.CancelFunc
		done   = make(chan struct{})
	)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Create a long-lived context for the bot
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())

			go func() {
				defer close(done)
				bot.Start(ctx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel == nil {
				return nil
			}
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})

	return bot, nil
}

// provideSender provides domain.Sender backed by the bot
func provideSender(bot *Bot, logger zerolog.Logger) domain.Sender {
	return NewSender(bot.Raw(), logger)
}
