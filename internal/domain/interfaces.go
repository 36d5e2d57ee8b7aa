package domain

import (
	"context"
	"time"
)

// Platform opens connections for accounts
type Platform interface {
	Open(ctx context.Context, account string, creds Credentials) (Connection, error)
	// Forget deletes stored session data of a removed account
	Forget(ctx context.Context, account string) error
}

// MediaDownloader downloads a media handle to a local path
type MediaDownloader interface {
	Download(ctx context.Context, media *Media, path string) error
}

// Connection is one account's link to the messaging platform.
// Connect is idempotent. Close releases the link and ends any event stream.
type Connection interface {
	MediaDownloader

	Connect(ctx context.Context) error
	Authorized(ctx context.Context) (bool, error)

	// SendCode requests a verification code and returns the challenge hash
	SendCode(ctx context.Context) (string, error)
	// SignIn returns ErrPasswordRequired when a second factor is needed
	SignIn(ctx context.Context, code, codeHash string) error
	SignInPassword(ctx context.Context, password string) error

	// Dialogs lists conversations that contain at least one message
	Dialogs(ctx context.Context) ([]int64, error)
	// Subscribe starts delivering events; the channel closes when the stream ends
	Subscribe(ctx context.Context) (<-chan Event, error)

	Close(ctx context.Context) error
}

// MediaUpload is a downloaded attachment ready to be sent
type MediaUpload struct {
	Kind     MediaKind
	Path     string
	FileName string
	MimeType string
	Caption  string
}

// Sender delivers reports to destinations
type Sender interface {
	SendText(ctx context.Context, dest Destination, text string) error
	SendMedia(ctx context.Context, dest Destination, upload MediaUpload) error
}

// SnapshotStore is the durable store for the full state
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

// SnapshotSource produces the current state for persisting
type SnapshotSource interface {
	Snapshot() *Snapshot
}

// Persister serializes durable saves of the current state
type Persister interface {
	Persist(ctx context.Context) error
}

// EventPublisher emits domain events to downstream consumers
type EventPublisher interface {
	PublishNewDialog(ctx context.Context, event NewDialogEvent) error
	PublishDeletion(ctx context.Context, event DeletionEvent) error
}

// MediaArchive stores recovered attachments and returns their location
type MediaArchive interface {
	Archive(ctx context.Context, account string, key MessageKey, path, contentType string) (string, error)
}

// DeletionReport is the input of one deletion report
type DeletionReport struct {
	Account     string
	Destination Destination
	Message     CachedMessage
	ObservedAt  time.Time
	Downloader  MediaDownloader
}
