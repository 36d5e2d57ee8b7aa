package domain

import "time"

// Event is a platform event delivered to a session worker
type Event interface {
	isEvent()
}

// InboundMessage carries any new message, incoming or outgoing
type InboundMessage struct {
	Message CachedMessage
}

// DeletionBatch carries ids of messages deleted in one update
type DeletionBatch struct {
	ChannelID  int64
	IDs        []int
	ObservedAt time.Time
}

func (InboundMessage) isEvent() {}
func (DeletionBatch) isEvent()  {}

// Keys returns cache keys of the deleted messages
func (b DeletionBatch) Keys() []MessageKey {
	keys := make([]MessageKey, 0, len(b.IDs))
	for _, id := range b.IDs {
		keys = append(keys, MessageKey{ChannelID: b.ChannelID, ID: id})
	}
	return keys
}
