package telegram

import (
	"context"
	"time"

	"github.com/gotd/td/tg"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

// onNewMessage handles messages of private chats and basic groups
func (c *Client) onNewMessage(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
	msg, ok := u.Message.(*tg.Message)
	if !ok {
		c.logger.Debug().Msg("skipping non-message update")
		return nil
	}

	c.emit(domain.InboundMessage{Message: convertMessage(msg, 0, e, time.Now())})
	return nil
}

// onNewChannelMessage handles messages of channels and supergroups
func (c *Client) onNewChannelMessage(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
	msg, ok := u.Message.(*tg.Message)
	if !ok {
		c.logger.Debug().Msg("skipping non-message update")
		return nil
	}

	peer, ok := msg.GetPeerID().(*tg.PeerChannel)
	if !ok {
		c.logger.Debug().Int("message_id", msg.ID).Msg("could not extract channel ID from message")
		return nil
	}

	c.emit(domain.InboundMessage{Message: convertMessage(msg, peer.ChannelID, e, time.Now())})
	return nil
}

// onDeleteMessages handles deletions in the common message box
func (c *Client) onDeleteMessages(ctx context.Context, e tg.Entities, u *tg.UpdateDeleteMessages) error {
	if len(u.Messages) == 0 {
		return nil
	}

	c.logger.Debug().Ints("message_ids", u.Messages).Msg("messages deleted")
	c.emit(domain.DeletionBatch{IDs: u.Messages, ObservedAt: time.Now()})
	return nil
}

// onDeleteChannelMessages handles deletions in a channel or supergroup
func (c *Client) onDeleteChannelMessages(ctx context.Context, e tg.Entities, u *tg.UpdateDeleteChannelMessages) error {
	if len(u.Messages) == 0 {
		return nil
	}

	c.logger.Debug().
		Int64("channel_id", u.ChannelID).
		Ints("message_ids", u.Messages).
		Msg("channel messages deleted")
	c.emit(domain.DeletionBatch{ChannelID: u.ChannelID, IDs: u.Messages, ObservedAt: time.Now()})
	return nil
}
