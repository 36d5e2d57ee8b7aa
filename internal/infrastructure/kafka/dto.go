package kafka

import "time"

// Event types carried in the envelope
const (
	EventTypeDialogNew      = "dialog.new"
	EventTypeMessageDeleted = "message.deleted"
)

// Envelope wraps every published event
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Account    string    `json:"account"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// NewDialogPayload is the payload of a dialog.new event
type NewDialogPayload struct {
	ConversationID int64  `json:"conversation_id"`
	Day            string `json:"day"`
}

// MessageDeletedPayload is the payload of a message.deleted event
type MessageDeletedPayload struct {
	ConversationID   int64  `json:"conversation_id"`
	ConversationName string `json:"conversation_name,omitempty"`
	MessageID        int    `json:"message_id"`
	HasMedia         bool   `json:"has_media"`
	MediaKind        string `json:"media_kind,omitempty"`
	ArchiveURL       string `json:"archive_url,omitempty"`
}
