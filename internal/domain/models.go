package domain

import "time"

// AuthState is the authorization state of an account
type AuthState string

const (
	AuthUnauthorized    AuthState = "unauthorized"
	AuthCodePending     AuthState = "code_pending"
	AuthPasswordPending AuthState = "password_pending"
	AuthAuthorized      AuthState = "authorized"
)

// Pending reports whether a sign-in challenge is in progress
func (s AuthState) Pending() bool {
	return s == AuthCodePending || s == AuthPasswordPending
}

// Credentials identify an account on the platform
type Credentials struct {
	APIID   int
	APIHash string
	Phone   string
}

// Destination is a chat, optionally a forum topic, receiving reports
type Destination struct {
	ChatID   int64 `json:"chatId"`
	ThreadID int   `json:"threadId,omitempty"`
}

// Account is a read-only view of a registry record
type Account struct {
	Name        string
	Credentials Credentials
	AuthState   AuthState
	Destination *Destination
	Initialized bool
	DialogCount int
}

// MessageKey identifies a message within one account's stream.
// ChannelID is zero for the account-wide message box.
type MessageKey struct {
	ChannelID int64
	ID        int
}

// CachedMessage is a snapshot of a received or sent message
type CachedMessage struct {
	Key              MessageKey
	ConversationID   int64
	ConversationName string
	Text             string
	Media            *Media
	Outgoing         bool
	ReceivedAt       time.Time
}

// DailyStat is the number of new conversations observed on a calendar day
type DailyStat struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// AccountSnapshot is the durable form of an account
type AccountSnapshot struct {
	Name        string
	Credentials Credentials
	AuthState   AuthState
	Destination *Destination
	Initialized bool
	Dialogs     []int64
	DailyStats  []DailyStat
}

// Snapshot is the full durable state
type Snapshot struct {
	Accounts []AccountSnapshot
	Admins   []int64
}

// NewDialogEvent is published when a conversation is seen for the first time
type NewDialogEvent struct {
	Account        string
	ConversationID int64
	Day            string
	ObservedAt     time.Time
}

// DeletionEvent is published when a deleted message has been reconstructed
type DeletionEvent struct {
	Account          string
	ConversationID   int64
	ConversationName string
	MessageID        int
	HasMedia         bool
	MediaKind        string
	ArchiveURL       string
	ObservedAt       time.Time
}
