package telegram

import (
	"context"
	"errors"

	"github.com/gotd/td/telegram/updates"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpdatesStateStorage implements updates.StateStorage for one account using PostgreSQL
type UpdatesStateStorage struct {
	db      *gorm.DB
	account string
	logger  zerolog.Logger
}

// NewUpdatesStateStorage creates a new PostgreSQL-based state storage
func NewUpdatesStateStorage(db *gorm.DB, account string, logger zerolog.Logger) *UpdatesStateStorage {
	return &UpdatesStateStorage{
		db:      db,
		account: account,
		logger:  logger.With().Str("component", "updates_state_storage").Str("account", account).Logger(),
	}
}

// GetState retrieves the updates state for a user
func (s *UpdatesStateStorage) GetState(ctx context.Context, userID int64) (updates.State, bool, error) {
	var state UpdatesStateModel

	result := s.db.WithContext(ctx).
		Where("account_name = ? AND user_id = ?", s.account, userID).
		First(&state)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			s.logger.Debug().Int64("user_id", userID).Msg("state not found")
			return updates.State{}, false, nil
		}
		s.logger.Error().Err(result.Error).Int64("user_id", userID).Msg("failed to get state")
		return updates.State{}, false, result.Error
	}

	return updates.State{
		Pts:  state.Pts,
		Qts:  state.Qts,
		Date: state.Date,
		Seq:  state.Seq,
	}, true, nil
}

// SetState saves the complete updates state for a user
func (s *UpdatesStateStorage) SetState(ctx context.Context, userID int64, state updates.State) error {
	return s.upsert(ctx, UpdatesStateModel{
		AccountName: s.account,
		UserID:      userID,
		Pts:         state.Pts,
		Qts:         state.Qts,
		Date:        state.Date,
		Seq:         state.Seq,
	}, "pts", "qts", "date", "seq")
}

// SetPts updates only the pts value for a user
func (s *UpdatesStateStorage) SetPts(ctx context.Context, userID int64, pts int) error {
	return s.upsert(ctx, UpdatesStateModel{AccountName: s.account, UserID: userID, Pts: pts}, "pts")
}

// SetQts updates only the qts value for a user
func (s *UpdatesStateStorage) SetQts(ctx context.Context, userID int64, qts int) error {
	return s.upsert(ctx, UpdatesStateModel{AccountName: s.account, UserID: userID, Qts: qts}, "qts")
}

// SetDate updates only the date value for a user
func (s *UpdatesStateStorage) SetDate(ctx context.Context, userID int64, date int) error {
	return s.upsert(ctx, UpdatesStateModel{AccountName: s.account, UserID: userID, Date: date}, "date")
}

// SetSeq updates only the seq value for a user
func (s *UpdatesStateStorage) SetSeq(ctx context.Context, userID int64, seq int) error {
	return s.upsert(ctx, UpdatesStateModel{AccountName: s.account, UserID: userID, Seq: seq}, "seq")
}

// SetDateSeq updates both date and seq values for a user
func (s *UpdatesStateStorage) SetDateSeq(ctx context.Context, userID int64, date, seq int) error {
	return s.upsert(ctx, UpdatesStateModel{AccountName: s.account, UserID: userID, Date: date, Seq: seq}, "date", "seq")
}

func (s *UpdatesStateStorage) upsert(ctx context.Context, record UpdatesStateModel, columns ...string) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_name"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&record)

	if result.Error != nil {
		s.logger.Error().Err(result.Error).
			Int64("user_id", record.UserID).
			Strs("columns", columns).
			Msg("failed to save state")
		return result.Error
	}
	return nil
}

// GetChannelPts retrieves the pts value for a specific channel
func (s *UpdatesStateStorage) GetChannelPts(ctx context.Context, userID, channelID int64) (int, bool, error) {
	var state ChannelStateModel

	result := s.db.WithContext(ctx).
		Where("account_name = ? AND user_id = ? AND channel_id = ?", s.account, userID, channelID).
		First(&state)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		s.logger.Error().Err(result.Error).
			Int64("channel_id", channelID).
			Msg("failed to get channel pts")
		return 0, false, result.Error
	}

	return state.Pts, true, nil
}

// SetChannelPts saves the pts value for a specific channel
func (s *UpdatesStateStorage) SetChannelPts(ctx context.Context, userID, channelID int64, pts int) error {
	record := ChannelStateModel{
		AccountName: s.account,
		UserID:      userID,
		ChannelID:   channelID,
		Pts:         pts,
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_name"}, {Name: "user_id"}, {Name: "channel_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"pts"}),
	}).Create(&record)

	if result.Error != nil {
		s.logger.Error().Err(result.Error).
			Int64("channel_id", channelID).
			Int("pts", pts).
			Msg("failed to set channel pts")
		return result.Error
	}

	return nil
}

// ForEachChannels iterates over all channels for a user and calls the provided function
func (s *UpdatesStateStorage) ForEachChannels(ctx context.Context, userID int64, f func(ctx context.Context, channelID int64, pts int) error) error {
	var states []ChannelStateModel

	result := s.db.WithContext(ctx).
		Where("account_name = ? AND user_id = ?", s.account, userID).
		Find(&states)
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Msg("failed to get channels")
		return result.Error
	}

	for _, state := range states {
		if err := f(ctx, state.ChannelID, state.Pts); err != nil {
			return err
		}
	}

	return nil
}

// DeleteAll removes every stored state of the account
func (s *UpdatesStateStorage) DeleteAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_name = ?", s.account).Delete(&ChannelStateModel{}).Error; err != nil {
			return err
		}
		return tx.Where("account_name = ?", s.account).Delete(&UpdatesStateModel{}).Error
	})
}

// Ensure UpdatesStateStorage implements updates.StateStorage interface
var _ updates.StateStorage = (*UpdatesStateStorage)(nil)
