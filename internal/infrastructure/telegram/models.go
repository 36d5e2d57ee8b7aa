package telegram

import "time"

// SessionModel represents database model for an MTProto session of one account
type SessionModel struct {
	AccountName string    `gorm:"primaryKey;size:64"`
	SessionData []byte    `gorm:"type:bytea;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for SessionModel
func (SessionModel) TableName() string {
	return "mtproto_sessions"
}

// UpdatesStateModel represents the common updates state of an account
type UpdatesStateModel struct {
	AccountName string `gorm:"primaryKey;column:account_name"`
	UserID      int64  `gorm:"primaryKey;column:user_id"`
	Pts         int    `gorm:"column:pts;default:0"`
	Qts         int    `gorm:"column:qts;default:0"`
	Date        int    `gorm:"column:date;default:0"`
	Seq         int    `gorm:"column:seq;default:0"`
}

// TableName returns the table name for UpdatesStateModel
func (UpdatesStateModel) TableName() string {
	return "telegram_updates_state"
}

// ChannelStateModel represents the pts state of one channel of an account
type ChannelStateModel struct {
	AccountName string `gorm:"primaryKey;column:account_name"`
	UserID      int64  `gorm:"primaryKey;column:user_id"`
	ChannelID   int64  `gorm:"primaryKey;column:channel_id"`
	Pts         int    `gorm:"column:pts;default:0"`
	AccessHash  int64  `gorm:"column:access_hash"`
}

// TableName returns the table name for ChannelStateModel
func (ChannelStateModel) TableName() string {
	return "telegram_channel_state"
}
