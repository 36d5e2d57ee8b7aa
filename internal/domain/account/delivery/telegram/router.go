package telegram

import (
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

// Router registers operator command handlers on the bot
type Router struct {
	handlers *Handlers
	logger   zerolog.Logger
}

// NewRouter creates new Telegram router
func NewRouter(handlers *Handlers, logger zerolog.Logger) *Router {
	return &Router{
		handlers: handlers,
		logger:   logger,
	}
}

// Routes returns every command with its handler
func (r *Router) Routes() map[Command]tgbot.HandlerFunc {
	h := r.handlers
	return map[Command]tgbot.HandlerFunc{
		CommandStart:         h.wrap(CommandStart, h.HandleHelp),
		CommandHelp:          h.wrap(CommandHelp, h.HandleHelp),
		CommandAddAccount:    h.wrap(CommandAddAccount, h.HandleAddAccount),
		CommandLogin:         h.wrap(CommandLogin, h.HandleLogin),
		CommandCode:          h.wrap(CommandCode, h.HandleCode),
		CommandPassword:      h.wrap(CommandPassword, h.HandlePassword),
		CommandRemoveAccount: h.wrap(CommandRemoveAccount, h.HandleRemoveAccount),
		CommandAssignChat:    h.wrap(CommandAssignChat, h.HandleAssignChat),
		CommandUnassignChat:  h.wrap(CommandUnassignChat, h.HandleUnassignChat),
		CommandListAccounts:  h.wrap(CommandListAccounts, h.HandleListAccounts),
		CommandStats:         h.wrap(CommandStats, h.HandleStats),
		CommandAddAdmin:      h.wrap(CommandAddAdmin, h.HandleAddAdmin),
		CommandListAdmins:    h.wrap(CommandListAdmins, h.HandleListAdmins),
	}
}

// RegisterRoutes registers all command handlers on the bot
func (r *Router) RegisterRoutes(bot *tgbot.Bot) {
	for cmd, handler := range r.Routes() {
		bot.RegisterHandlerMatchFunc(matchCommand(cmd.Name), handler)
	}

	r.logger.Info().Msg("All Telegram command handlers registered successfully")
}

// matchCommand matches messages whose first word is the command, with or without a @bot suffix
func matchCommand(name string) tgbot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		return commandName(update.Message.Text) == name
	}
}

func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return name
}
