package persistence

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

const insertBatchSize = 500

// Store implements domain.SnapshotStore on PostgreSQL
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewStore creates a new PostgreSQL-based snapshot store
func NewStore(db *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "snapshot_store").Logger(),
	}
}

// Load reads the full state. An empty database yields an empty snapshot.
func (s *Store) Load(ctx context.Context) (*domain.Snapshot, error) {
	var r rows
	db := s.db.WithContext(ctx)

	if err := db.Order("name").Find(&r.accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	if err := db.Order("account_name, position").Find(&r.dialogs).Error; err != nil {
		return nil, fmt.Errorf("failed to load dialogs: %w", err)
	}
	if err := db.Find(&r.stats).Error; err != nil {
		return nil, fmt.Errorf("failed to load daily stats: %w", err)
	}
	if err := db.Find(&r.admins).Error; err != nil {
		return nil, fmt.Errorf("failed to load admins: %w", err)
	}

	s.logger.Debug().
		Int("accounts", len(r.accounts)).
		Int("dialogs", len(r.dialogs)).
		Int("admins", len(r.admins)).
		Msg("snapshot loaded")

	return fromRows(r), nil
}

// Save replaces the stored state with snapshot in one transaction.
// Dialog rows are only ever added, so existing rows are kept and new ones inserted.
func (s *Store) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	r := toRows(snapshot)

	names := make([]string, 0, len(r.accounts))
	for _, acc := range r.accounts {
		names = append(names, acc.Name)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed := tx.Where("1 = 1")
		if len(names) > 0 {
			removed = tx.Where("name NOT IN ?", names)
		}
		// account_dialogs rows go with their account by cascade
		if err := removed.Delete(&AccountModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete removed accounts: %w", err)
		}

		if len(r.accounts) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"api_id", "api_hash", "phone", "auth_state",
					"dest_chat_id", "dest_thread_id", "initialized", "updated_at",
				}),
			}).Create(&r.accounts).Error
			if err != nil {
				return fmt.Errorf("failed to upsert accounts: %w", err)
			}
		}

		if len(r.dialogs) > 0 {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(&r.dialogs, insertBatchSize).Error
			if err != nil {
				return fmt.Errorf("failed to insert dialogs: %w", err)
			}
		}

		// Rollover shrinks the per-day map, so stats are rewritten
		if err := tx.Where("1 = 1").Delete(&DailyStatModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear daily stats: %w", err)
		}
		if len(r.stats) > 0 {
			if err := tx.CreateInBatches(&r.stats, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert daily stats: %w", err)
			}
		}

		if err := tx.Where("1 = 1").Delete(&AdminModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear admins: %w", err)
		}
		if len(r.admins) > 0 {
			if err := tx.Create(&r.admins).Error; err != nil {
				return fmt.Errorf("failed to insert admins: %w", err)
			}
		}

		return nil
	})
}

var _ domain.SnapshotStore = (*Store)(nil)
