// Package bot contains the Telegram bot used for reports and operator commands
package bot

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

const unknownCommandText = "🤖 Неизвестная команда. Напишите /help для списка доступных команд."

// Bot wraps the Telegram bot for infrastructure layer
type Bot struct {
	bot    *tgbot.Bot
	logger zerolog.Logger
}

// NewBot creates the bot. Polling errors go to the log instead of stderr.
func NewBot(token string, logger zerolog.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	b := &Bot{
		logger: logger.With().Str("component", "bot").Logger(),
	}

	raw, err := tgbot.New(token,
		tgbot.WithDefaultHandler(b.defaultHandler),
		tgbot.WithErrorsHandler(func(err error) {
			b.logger.Warn().Err(err).Msg("bot polling error")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	b.bot = raw

	b.logger.Info().Msg("Telegram bot created successfully")
	return b, nil
}

// Raw returns the underlying telegram bot for handler registration
func (b *Bot) Raw() *tgbot.Bot {
	return b.bot
}

// Start polls updates until ctx is cancelled (blocking call)
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info().Msg("Starting Telegram bot...")
	b.bot.Start(ctx)
	b.logger.Info().Msg("Telegram bot stopped")
}

// defaultHandler answers private messages that no command matched
func (b *Bot) defaultHandler(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	text, ok := unmatchedReply(update)
	if !ok {
		return
	}

	if _, err := bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	}); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", update.Message.Chat.ID).Msg("failed to answer unknown command")
	}
}

// unmatchedReply returns the reply to an unmatched update. Group chats and
// plain text are ignored so destinations are never answered.
func unmatchedReply(update *models.Update) (string, bool) {
	msg := update.Message
	if msg == nil || msg.Chat.Type != models.ChatTypePrivate {
		return "", false
	}
	if !strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		return "", false
	}
	return unknownCommandText, true
}
