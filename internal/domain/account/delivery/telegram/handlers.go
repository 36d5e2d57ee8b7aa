// Package telegram contains the operator command surface of the bot
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/entities"
	accerrors "github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/errors"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/auth"
	pkgerrors "github.com/Conte777/NewsFlow/services/sentinel-service/pkg/errors"
)

// RequestTimeout bounds one command including platform round trips
const RequestTimeout = 60 * time.Second

// Operator is the use case behind the commands
type Operator interface {
	IsAdmin(userID int64) bool
	AddAccount(ctx context.Context, name string, creds domain.Credentials) error
	RemoveAccount(ctx context.Context, name string) error
	Login(ctx context.Context, name string) (auth.Result, error)
	SubmitCode(ctx context.Context, name, code string) (auth.Result, error)
	SubmitPassword(ctx context.Context, name, password string) (auth.Result, error)
	AssignDestination(ctx context.Context, name string, dest domain.Destination) error
	UnassignDestination(ctx context.Context, name string) error
	ListAccounts() []entities.AccountInfo
	AccountStats(name string) (entities.AccountStats, error)
	Summary() entities.Summary
	AddAdmin(ctx context.Context, requester, userID int64) (bool, error)
	ListAdmins() []entities.Admin
}

// Messenger sends command replies
type Messenger interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *tgbot.DeleteMessageParams) (bool, error)
}

// Handlers contains operator command handlers
type Handlers struct {
	uc     Operator
	api    Messenger
	logger zerolog.Logger
}

// NewHandlers creates new command handlers
func NewHandlers(uc Operator, api Messenger, logger zerolog.Logger) *Handlers {
	return &Handlers{
		uc:     uc,
		api:    api,
		logger: logger.With().Str("component", "operator_commands").Logger(),
	}
}

type commandFunc func(ctx context.Context, msg *models.Message, args []string) string

// wrap checks admin rights, parses arguments and sends the reply
func (h *Handlers) wrap(cmd Command, fn commandFunc) tgbot.HandlerFunc {
	return func(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || msg.From == nil {
			return
		}
		userID := msg.From.ID

		if !h.uc.IsAdmin(userID) {
			h.logCommand(userID, cmd.Name, "denied")
			h.sendResponse(ctx, msg.Chat.ID, "❌ Нет доступа.")
			return
		}

		cmdCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()

		h.logCommand(userID, cmd.Name, "processing")
		reply := fn(cmdCtx, msg, commandArgs(msg.Text))
		h.sendResponse(ctx, msg.Chat.ID, reply)
	}
}

// HandleHelp handles /start and /help
func (h *Handlers) HandleHelp(_ context.Context, _ *models.Message, _ []string) string {
	return helpText
}

// HandleAddAccount handles /add_account
func (h *Handlers) HandleAddAccount(ctx context.Context, _ *models.Message, args []string) string {
	if len(args) < 4 {
		return usage(CommandAddAccount)
	}
	apiID, err := strconv.Atoi(args[1])
	if err != nil || apiID <= 0 {
		return "❌ api_id должен быть положительным числом."
	}

	name := args[0]
	creds := domain.Credentials{
		APIID:   apiID,
		APIHash: args[2],
		Phone:   strings.Join(args[3:], ""),
	}
	if err := h.uc.AddAccount(ctx, name, creds); err != nil {
		return h.errorText(CommandAddAccount, name, err)
	}

	return fmt.Sprintf("🔐 Аккаунт %s добавлен.\n\nДля авторизации используйте команду:\n/login %s", name, name)
}

// HandleLogin handles /login
func (h *Handlers) HandleLogin(ctx context.Context, _ *models.Message, args []string) string {
	if len(args) < 1 {
		return usage(CommandLogin)
	}
	name := args[0]

	result, err := h.uc.Login(ctx, name)
	if err != nil {
		return h.errorText(CommandLogin, name, err)
	}
	if result == auth.ResultAlreadyAuthorized {
		return fmt.Sprintf("✅ Аккаунт %s уже авторизован и запущен!", name)
	}

	return fmt.Sprintf(
		"📱 Код отправлен.\n\n⚡ Введите код быстро, в течение 1-2 минут:\n/code %s <код>\n\n"+
			"⚠️ Если включена 2FA (облачный пароль), после кода будет запрошен пароль.",
		name,
	)
}

// HandleCode handles /code
func (h *Handlers) HandleCode(ctx context.Context, _ *models.Message, args []string) string {
	if len(args) < 2 {
		return usage(CommandCode)
	}
	name := args[0]

	result, err := h.uc.SubmitCode(ctx, name, args[1])
	if err != nil {
		return h.errorText(CommandCode, name, err)
	}
	if result == auth.ResultPasswordRequired {
		return fmt.Sprintf("🔐 Требуется облачный пароль (2FA).\n\nОтправьте команду:\n/password %s <пароль>", name)
	}
	return authorizedText(name)
}

// HandlePassword handles /password. The message with the password is deleted.
func (h *Handlers) HandlePassword(ctx context.Context, msg *models.Message, _ []string) string {
	defer h.deleteMessage(ctx, msg)

	// The password may contain spaces
	parts := strings.SplitN(strings.TrimSpace(msg.Text), " ", 3)
	if len(parts) < 3 || strings.TrimSpace(parts[2]) == "" {
		return usage(CommandPassword)
	}
	name := parts[1]

	if _, err := h.uc.SubmitPassword(ctx, name, parts[2]); err != nil {
		return h.errorText(CommandPassword, name, err)
	}
	return authorizedText(name)
}

// HandleRemoveAccount handles /remove_account
func (h *Handlers) HandleRemoveAccount(ctx context.Context, _ *models.Message, args []string) string {
	if len(args) < 1 {
		return usage(CommandRemoveAccount)
	}
	name := args[0]

	if err := h.uc.RemoveAccount(ctx, name); err != nil {
		return h.errorText(CommandRemoveAccount, name, err)
	}
	return fmt.Sprintf("✅ Аккаунт %s удалён.", name)
}

// HandleAssignChat handles /assign_chat
func (h *Handlers) HandleAssignChat(ctx context.Context, _ *models.Message, args []string) string {
	if len(args) < 2 {
		return usage(CommandAssignChat) + "\n\nПримеры:\n/assign_chat Ваня -1001234567890 - без топика\n/assign_chat Ваня -1001234567890 52 - с топиком ID 52"
	}
	name := args[0]

	chatID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "❌ Неверный формат ID. Должны быть числа."
	}
	dest := domain.Destination{ChatID: chatID}
	if len(args) > 2 {
		threadID, err := strconv.Atoi(args[2])
		if err != nil {
			return "❌ Неверный формат ID. Должны быть числа."
		}
		dest.ThreadID = threadID
	}

	err = h.uc.AssignDestination(ctx, name, dest)
	switch {
	case errors.Is(err, accerrors.ErrDestinationUnreachable):
		return fmt.Sprintf(
			"❌ Не удалось отправить сообщение в чат %d\nОшибка: %v\n\nУбедитесь что:\n"+
				"1. Бот добавлен в группу\n2. У бота есть права на отправку сообщений\n"+
				"3. Chat ID указан правильно\n4. Thread ID существует (если указан)",
			chatID, err,
		)
	case err != nil:
		return h.errorText(CommandAssignChat, name, err)
	}

	reply := fmt.Sprintf("✅ Чат %d успешно привязан к аккаунту %s!\n", chatID, name)
	if dest.ThreadID != 0 {
		reply += fmt.Sprintf("🧵 Топик ID: %d\n", dest.ThreadID)
	}
	return reply + "\nТеперь все удалённые сообщения и отчёты будут отправляться туда."
}

// HandleUnassignChat handles /unassign_chat
func (h *Handlers) HandleUnassignChat(ctx context.Context, _ *models.Message, args []string) string {
	if len(args) < 1 {
		return usage(CommandUnassignChat)
	}
	name := args[0]

	if err := h.uc.UnassignDestination(ctx, name); err != nil {
		return h.errorText(CommandUnassignChat, name, err)
	}
	return fmt.Sprintf("✅ Чат отвязан от аккаунта %s.", name)
}

// HandleListAccounts handles /list_accounts
func (h *Handlers) HandleListAccounts(_ context.Context, _ *models.Message, _ []string) string {
	return FormatAccounts(h.uc.ListAccounts())
}

// HandleStats handles /stats
func (h *Handlers) HandleStats(_ context.Context, _ *models.Message, args []string) string {
	if len(args) == 0 {
		return FormatSummary(h.uc.Summary())
	}

	stats, err := h.uc.AccountStats(args[0])
	if err != nil {
		return h.errorText(CommandStats, args[0], err)
	}
	return FormatAccountStats(stats)
}

// HandleAddAdmin handles /add_admin
func (h *Handlers) HandleAddAdmin(ctx context.Context, msg *models.Message, args []string) string {
	if len(args) < 1 {
		return usage(CommandAddAdmin)
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "❌ Неверный формат ID. Должно быть число."
	}

	added, err := h.uc.AddAdmin(ctx, msg.From.ID, userID)
	if err != nil {
		return h.errorText(CommandAddAdmin, "", err)
	}
	if !added {
		return fmt.Sprintf("ℹ️ Пользователь %d уже администратор.", userID)
	}
	return fmt.Sprintf("✅ Пользователь %d добавлен в администраторы.", userID)
}

// HandleListAdmins handles /list_admins
func (h *Handlers) HandleListAdmins(_ context.Context, _ *models.Message, _ []string) string {
	return FormatAdmins(h.uc.ListAdmins())
}

// errorText turns an operator error into a reply
func (h *Handlers) errorText(cmd Command, name string, err error) string {
	h.logger.Warn().Err(err).Str("command", cmd.Name).Str("account", name).Msg("Command failed")

	switch {
	case domain.IsKind(err, domain.KindUnknownAccount):
		return "❌ Аккаунт не найден."
	case domain.IsKind(err, domain.KindDuplicateAccount):
		return "❌ Аккаунт с таким названием уже существует."
	case errors.Is(err, auth.ErrNoPendingAuth):
		return "❌ Нет активной сессии авторизации. Используйте /login сначала."
	case errors.Is(err, auth.ErrPendingExpired):
		return fmt.Sprintf("❌ Время ожидания кода истекло.\n\nПопробуйте /login %s заново.", name)
	case errors.Is(err, auth.ErrUnexpectedStep):
		return "❌ Сейчас ожидается другой шаг авторизации."
	case domain.IsKind(err, domain.KindAuth):
		return fmt.Sprintf("❌ Ошибка входа: %v\n\nПопробуйте /login %s заново.", err, name)
	}

	var validationErr *pkgerrors.ValidationError
	if errors.As(err, &validationErr) {
		return "❌ " + validationErr.Error()
	}
	var permissionErr *pkgerrors.PermissionError
	if errors.As(err, &permissionErr) {
		return "❌ Только главный администратор может добавлять других админов."
	}

	return fmt.Sprintf("❌ Ошибка: %v", err)
}

func (h *Handlers) sendResponse(ctx context.Context, chatID int64, text string) {
	_, err := h.api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send command reply")
	}
}

func (h *Handlers) deleteMessage(ctx context.Context, msg *models.Message) {
	_, err := h.api.DeleteMessage(ctx, &tgbot.DeleteMessageParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to delete message with password")
	}
}

func (h *Handlers) logCommand(userID int64, command, result string) {
	h.logger.Info().Int64("user_id", userID).Str("command", command).Str("result", result).Msg("Operator command")
}

// commandArgs returns the whitespace separated arguments after the command
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

func usage(cmd Command) string {
	return "❌ Формат: " + cmd.Usage
}

func authorizedText(name string) string {
	return fmt.Sprintf("✅ Аккаунт %s успешно авторизован и запущен!\n\nТеперь привяжите чат:\n/assign_chat %s <chat_id>", name, name)
}
