package business

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/deps"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/entities"
	accerrors "github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/errors"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/auth"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/session"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/utils"
)

// UseCase implements operator commands over the account registry, sign-in flow and admin set
type UseCase struct {
	registry  deps.Registry
	admins    deps.Admins
	signIn    deps.SignIn
	sessions  deps.Sessions
	sender    domain.Sender
	persister domain.Persister
	logger    zerolog.Logger
}

// NewUseCase creates a new operator use case
func NewUseCase(
	registry deps.Registry,
	admins deps.Admins,
	signIn deps.SignIn,
	sessions deps.Sessions,
	sender domain.Sender,
	persister domain.Persister,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		registry:  registry,
		admins:    admins,
		signIn:    signIn,
		sessions:  sessions,
		sender:    sender,
		persister: persister,
		logger:    logger.With().Str("component", "operator").Logger(),
	}
}

// IsAdmin reports whether userID may run operator commands
func (u *UseCase) IsAdmin(userID int64) bool {
	return u.admins.IsAdmin(userID)
}

// AddAccount registers a new unauthorized account
func (u *UseCase) AddAccount(ctx context.Context, name string, creds domain.Credentials) error {
	if err := u.registry.AddAccount(name, creds); err != nil {
		return err
	}

	u.logger.Info().
		Str("account", name).
		Int("api_id", creds.APIID).
		Str("api_hash", utils.MaskSecret(creds.APIHash)).
		Str("phone", utils.MaskPhoneNumber(creds.Phone)).
		Msg("Account added by operator")

	u.persist(ctx, "add_account")
	return nil
}

// RemoveAccount stops the account's worker and deletes it with all derived state
func (u *UseCase) RemoveAccount(ctx context.Context, name string) error {
	if err := u.registry.RemoveAccount(ctx, name); err != nil {
		return err
	}
	u.persist(ctx, "remove_account")
	return nil
}

// Login requests a verification code for the account
func (u *UseCase) Login(ctx context.Context, name string) (auth.Result, error) {
	return u.signIn.RequestCode(ctx, name)
}

// SubmitCode signs the account in with a received code
func (u *UseCase) SubmitCode(ctx context.Context, name, code string) (auth.Result, error) {
	return u.signIn.SubmitCode(ctx, name, code)
}

// SubmitPassword completes second factor sign-in
func (u *UseCase) SubmitPassword(ctx context.Context, name, password string) (auth.Result, error) {
	return u.signIn.SubmitPassword(ctx, name, password)
}

// AssignDestination sends a test message to the destination and, once it is delivered,
// makes it the account's report destination
func (u *UseCase) AssignDestination(ctx context.Context, name string, dest domain.Destination) error {
	if dest.ChatID == 0 {
		return accerrors.ErrInvalidDestination
	}
	if _, err := u.registry.Account(name); err != nil {
		return err
	}

	if err := u.sender.SendText(ctx, dest, AssignTestMessage(name, dest)); err != nil {
		u.logger.Warn().Err(err).
			Str("account", name).
			Int64("chat_id", dest.ChatID).
			Int("thread_id", dest.ThreadID).
			Msg("Test message to destination failed")
		return fmt.Errorf("%w: %v", accerrors.ErrDestinationUnreachable, err)
	}

	if err := u.registry.AssignDestination(name, dest); err != nil {
		return err
	}

	u.logger.Info().
		Str("account", name).
		Int64("chat_id", dest.ChatID).
		Int("thread_id", dest.ThreadID).
		Msg("Destination assigned")

	u.persist(ctx, "assign_destination")
	return nil
}

// UnassignDestination clears the account's report destination
func (u *UseCase) UnassignDestination(ctx context.Context, name string) error {
	if err := u.registry.UnassignDestination(name); err != nil {
		return err
	}
	u.persist(ctx, "unassign_destination")
	return nil
}

// ListAccounts returns all accounts with their worker state
func (u *UseCase) ListAccounts() []entities.AccountInfo {
	accounts := u.registry.Accounts()

	infos := make([]entities.AccountInfo, 0, len(accounts))
	for _, acc := range accounts {
		worker := session.StateStopped
		if status, ok := u.sessions.Status(acc.Name); ok {
			worker = status.State
		}
		infos = append(infos, entities.AccountInfo{
			Name:        acc.Name,
			Phone:       utils.MaskPhoneNumber(acc.Credentials.Phone),
			AuthState:   acc.AuthState,
			Worker:      worker.String(),
			Live:        worker == session.StateLive,
			Destination: acc.Destination,
			DialogCount: acc.DialogCount,
		})
	}
	return infos
}

// AccountStats returns today's statistics of one account
func (u *UseCase) AccountStats(name string) (entities.AccountStats, error) {
	acc, err := u.registry.Account(name)
	if err != nil {
		return entities.AccountStats{}, err
	}
	return u.accountStats(acc)
}

func (u *UseCase) accountStats(acc domain.Account) (entities.AccountStats, error) {
	today, err := u.registry.TodayCount(acc.Name)
	if err != nil {
		return entities.AccountStats{}, err
	}
	daily, err := u.registry.DailyStats(acc.Name)
	if err != nil {
		return entities.AccountStats{}, err
	}
	status, ok := u.sessions.Status(acc.Name)

	return entities.AccountStats{
		Name:         acc.Name,
		Day:          u.registry.Today(),
		NewToday:     today,
		TotalDialogs: acc.DialogCount,
		Live:         ok && status.State == session.StateLive,
		Daily:        daily,
	}, nil
}

// Summary returns today's statistics of all accounts with totals.
// Accounts removed while the summary is built are skipped.
func (u *UseCase) Summary() entities.Summary {
	summary := entities.Summary{
		Day:      u.registry.Today(),
		Accounts: make([]entities.AccountStats, 0),
	}

	for _, acc := range u.registry.Accounts() {
		stats, err := u.accountStats(acc)
		if err != nil {
			continue
		}
		summary.Accounts = append(summary.Accounts, stats)
		summary.TotalNew += stats.NewToday
		summary.TotalDialogs += stats.TotalDialogs
	}
	return summary
}

// AddAdmin grants admin rights. Only the main admin may do this.
// Returns false when the user already was an admin.
func (u *UseCase) AddAdmin(ctx context.Context, requester, userID int64) (bool, error) {
	if !u.admins.IsMain(requester) {
		return false, accerrors.ErrMainAdminOnly
	}

	added, err := u.admins.Add(userID)
	if err != nil || !added {
		return added, err
	}

	u.persist(ctx, "add_admin")
	return true, nil
}

// ListAdmins returns all admins, the main one marked
func (u *UseCase) ListAdmins() []entities.Admin {
	ids := u.admins.List()

	admins := make([]entities.Admin, 0, len(ids))
	for _, id := range ids {
		admins = append(admins, entities.Admin{ID: id, Main: u.admins.IsMain(id)})
	}
	return admins
}

// persist saves the new state. A failed save is already surfaced by the writer,
// so the command itself still succeeds.
func (u *UseCase) persist(ctx context.Context, op string) {
	if err := u.persister.Persist(ctx); err != nil {
		u.logger.Error().Err(err).Str("op", op).Msg("Failed to persist state after command")
	}
}

// AssignTestMessage is the text sent to a destination before it is assigned
func AssignTestMessage(name string, dest domain.Destination) string {
	text := fmt.Sprintf("✅ Чат успешно привязан к аккаунту %s!", name)
	if dest.ThreadID != 0 {
		text += fmt.Sprintf("\n🧵 Топик ID: %d", dest.ThreadID)
	}
	return text
}
