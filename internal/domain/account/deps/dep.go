package deps

import (
	"context"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/auth"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/session"
)

// Registry is the part of the account registry used by operators
type Registry interface {
	AddAccount(name string, creds domain.Credentials) error
	RemoveAccount(ctx context.Context, name string) error
	AssignDestination(name string, dest domain.Destination) error
	UnassignDestination(name string) error
	Account(name string) (domain.Account, error)
	Accounts() []domain.Account
	TodayCount(name string) (int, error)
	DailyStats(name string) ([]domain.DailyStat, error)
	Today() string
}

// Admins holds operators allowed to run commands
type Admins interface {
	IsMain(userID int64) bool
	IsAdmin(userID int64) bool
	Add(userID int64) (bool, error)
	List() []int64
}

// SignIn drives interactive sign-in of accounts
type SignIn interface {
	RequestCode(ctx context.Context, account string) (auth.Result, error)
	SubmitCode(ctx context.Context, account, code string) (auth.Result, error)
	SubmitPassword(ctx context.Context, account, password string) (auth.Result, error)
}

// Sessions reports session worker state
type Sessions interface {
	Status(name string) (session.Status, bool)
	LiveCount() int
	Failed() []string
}

// PersistenceStatus reports the outcome of durable saves
type PersistenceStatus interface {
	LastError() error
}
