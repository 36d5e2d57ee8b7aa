package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Registry is the part of the account registry used by session workers
type Registry interface {
	Credentials(name string) (domain.Credentials, error)
	Accounts() []domain.Account
	IsInitialized(name string) (bool, error)
	SeedDialogs(name string, conversationIDs []int64) (bool, error)
	RecordNewDialog(name string, conversationID int64) (bool, error)
	Destination(name string) (*domain.Destination, error)
	SetAuthState(name string, state domain.AuthState) error
}

// Cache is the message cache used by session workers
type Cache interface {
	Put(account string, msg domain.CachedMessage)
	Get(account string, key domain.MessageKey) (domain.CachedMessage, bool)
	Remove(account string, keys ...domain.MessageKey)
	EvictOlderThan(account string, age time.Duration) int
}

// Reporter turns a consumed cache entry into a deletion report
type Reporter interface {
	Report(ctx context.Context, rep domain.DeletionReport) error
}

// Deps are the collaborators shared by all workers
type Deps struct {
	Registry  Registry
	Cache     Cache
	Reporter  Reporter
	Persister domain.Persister
	// Publisher may be nil
	Publisher domain.EventPublisher
	Retention time.Duration
	Zone      *time.Location
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
