package persistence

import "time"

// AccountModel represents database model for a monitored account
type AccountModel struct {
	Name         string    `gorm:"primaryKey;size:64"`
	APIID        int       `gorm:"column:api_id;not null"`
	APIHash      string    `gorm:"column:api_hash;not null;size:64"`
	Phone        string    `gorm:"not null;size:32"`
	AuthState    string    `gorm:"not null;default:'unauthorized';size:32"`
	DestChatID   *int64    `gorm:"column:dest_chat_id"`
	DestThreadID int       `gorm:"column:dest_thread_id;not null;default:0"`
	Initialized  bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for AccountModel
func (AccountModel) TableName() string {
	return "accounts"
}

// DialogModel represents one known conversation of an account
type DialogModel struct {
	AccountName    string `gorm:"primaryKey;size:64"`
	ConversationID int64  `gorm:"primaryKey"`
	Position       int    `gorm:"not null"`
}

// TableName returns the table name for DialogModel
func (DialogModel) TableName() string {
	return "account_dialogs"
}

// DailyStatModel represents the new-dialog counter of one calendar day
type DailyStatModel struct {
	AccountName string `gorm:"primaryKey;size:64"`
	Day         string `gorm:"primaryKey;size:10"`
	Count       int    `gorm:"not null;default:0"`
}

// TableName returns the table name for DailyStatModel
func (DailyStatModel) TableName() string {
	return "daily_stats"
}

// AdminModel represents an operator added at runtime
type AdminModel struct {
	UserID    int64     `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for AdminModel
func (AdminModel) TableName() string {
	return "admins"
}
