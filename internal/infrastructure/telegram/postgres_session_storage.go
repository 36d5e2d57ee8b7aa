package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/session"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresSessionStorage implements session.Storage for one account using PostgreSQL
type PostgresSessionStorage struct {
	db      *gorm.DB
	account string
}

// NewPostgresSessionStorage creates a new PostgreSQL-based session storage
func NewPostgresSessionStorage(db *gorm.DB, account string) (*PostgresSessionStorage, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if account == "" {
		return nil, fmt.Errorf("account name is required")
	}

	return &PostgresSessionStorage{db: db, account: account}, nil
}

// LoadSession loads session data from PostgreSQL
func (s *PostgresSessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	var sess SessionModel
	result := s.db.WithContext(ctx).Where("account_name = ?", s.account).First(&sess)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, session.ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load session: %w", result.Error)
	}

	if len(sess.SessionData) == 0 {
		return nil, session.ErrNotFound
	}

	return sess.SessionData, nil
}

// StoreSession stores session data to PostgreSQL
func (s *PostgresSessionStorage) StoreSession(ctx context.Context, data []byte) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_data", "updated_at"}),
	}).Create(&SessionModel{AccountName: s.account, SessionData: data}).Error
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// DeleteSession removes the session from the database
func (s *PostgresSessionStorage) DeleteSession(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("account_name = ?", s.account).Delete(&SessionModel{}).Error
}

// Ensure PostgresSessionStorage implements session.Storage interface
var _ session.Storage = (*PostgresSessionStorage)(nil)
