package telegram

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Platform opens MTProto clients whose sessions live in PostgreSQL
type Platform struct {
	db          *gorm.DB
	eventBuffer int
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewPlatform creates a new Platform
func NewPlatform(db *gorm.DB, eventBuffer int, logger zerolog.Logger, m *metrics.Metrics) *Platform {
	return &Platform{
		db:          db,
		eventBuffer: eventBuffer,
		logger:      logger,
		metrics:     m,
	}
}

// Open creates a client for the account; Connect is left to the caller
func (p *Platform) Open(ctx context.Context, account string, creds domain.Credentials) (domain.Connection, error) {
	sessions, err := NewPostgresSessionStorage(p.db, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create session storage: %w", err)
	}

	client, err := NewClient(ClientConfig{
		Account:     account,
		Credentials: creds,
		Sessions:    sessions,
		States:      NewUpdatesStateStorage(p.db, account, p.logger),
		EventBuffer: p.eventBuffer,
		Logger:      p.logger,
		Metrics:     p.metrics,
	})
	if err != nil {
		return nil, err
	}

	return client, nil
}

// Forget deletes the stored session and update state of a removed account
func (p *Platform) Forget(ctx context.Context, account string) error {
	sessions, err := NewPostgresSessionStorage(p.db, account)
	if err != nil {
		return err
	}
	if err := sessions.DeleteSession(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if err := NewUpdatesStateStorage(p.db, account, p.logger).DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to delete updates state: %w", err)
	}

	p.logger.Info().Str("account", account).Msg("stored session deleted")
	return nil
}

// Ensure Platform implements domain.Platform interface
var _ domain.Platform = (*Platform)(nil)
