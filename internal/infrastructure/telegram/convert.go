package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

// channelIDOffset is subtracted from channel ids to get their marked form
const channelIDOffset int64 = 1000000000000

// markedPeerID returns the signed id of a peer: users are positive,
// basic groups are negated and channels are offset below -10^12
func markedPeerID(peer tg.PeerClass) int64 {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return p.UserID
	case *tg.PeerChat:
		return -p.ChatID
	case *tg.PeerChannel:
		return -channelIDOffset - p.ChannelID
	default:
		return 0
	}
}

// peerName returns the display name of a peer from update entities
func peerName(peer tg.PeerClass, e tg.Entities) string {
	switch p := peer.(type) {
	case *tg.PeerUser:
		if user, ok := e.Users[p.UserID]; ok {
			return userName(user)
		}
	case *tg.PeerChat:
		if chat, ok := e.Chats[p.ChatID]; ok {
			return chat.Title
		}
	case *tg.PeerChannel:
		if channel, ok := e.Channels[p.ChannelID]; ok {
			return channel.Title
		}
	}
	return ""
}

func userName(user *tg.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" && user.Username != "" {
		name = "@" + user.Username
	}
	return name
}

// convertMessage builds a cache snapshot from a platform message.
// channelID is non-zero for messages of the channel update box.
func convertMessage(msg *tg.Message, channelID int64, e tg.Entities, receivedAt time.Time) domain.CachedMessage {
	peer := msg.GetPeerID()

	return domain.CachedMessage{
		Key:              domain.MessageKey{ChannelID: channelID, ID: msg.ID},
		ConversationID:   markedPeerID(peer),
		ConversationName: peerName(peer, e),
		Text:             msg.Message,
		Media:            convertMedia(msg.Media),
		Outgoing:         msg.Out,
		ReceivedAt:       receivedAt,
	}
}

// convertMedia extracts a downloadable descriptor; media without a file yields nil
func convertMedia(media tg.MessageMediaClass) *domain.Media {
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		photo, ok := m.Photo.(*tg.Photo)
		if !ok {
			return nil
		}
		thumb, size := largestPhotoSize(photo.Sizes)
		if thumb == "" {
			return nil
		}
		return &domain.Media{
			IsPhoto:  true,
			MimeType: "image/jpeg",
			Size:     int64(size),
			Handle: &tg.InputPhotoFileLocation{
				ID:            photo.ID,
				AccessHash:    photo.AccessHash,
				FileReference: photo.FileReference,
				ThumbSize:     thumb,
			},
		}

	case *tg.MessageMediaDocument:
		doc, ok := m.Document.(*tg.Document)
		if !ok {
			return nil
		}
		result := &domain.Media{
			MimeType: doc.MimeType,
			Size:     doc.Size,
			Handle: &tg.InputDocumentFileLocation{
				ID:            doc.ID,
				AccessHash:    doc.AccessHash,
				FileReference: doc.FileReference,
			},
		}
		for _, attr := range doc.Attributes {
			switch a := attr.(type) {
			case *tg.DocumentAttributeAudio:
				result.Voice = result.Voice || a.Voice
			case *tg.DocumentAttributeVideo:
				result.Round = result.Round || a.RoundMessage
			case *tg.DocumentAttributeFilename:
				result.FileName = a.FileName
			}
		}
		return result
	}

	return nil
}

// largestPhotoSize returns the type and byte size of the biggest photo size
func largestPhotoSize(sizes []tg.PhotoSizeClass) (string, int) {
	var (
		bestType string
		bestArea int
		bestSize int
	)

	for _, s := range sizes {
		var (
			typ  string
			area int
			size int
		)
		switch p := s.(type) {
		case *tg.PhotoSize:
			typ, area, size = p.Type, p.W*p.H, p.Size
		case *tg.PhotoSizeProgressive:
			typ, area = p.Type, p.W*p.H
			if n := len(p.Sizes); n > 0 {
				size = p.Sizes[n-1]
			}
		default:
			continue
		}
		if area > bestArea {
			bestType, bestArea, bestSize = typ, area, size
		}
	}

	return bestType, bestSize
}

// fileLocation returns the download location carried by a media descriptor
func fileLocation(media *domain.Media) (tg.InputFileLocationClass, error) {
	if media == nil || media.Handle == nil {
		return nil, domain.ErrUnsupportedMedia
	}
	loc, ok := media.Handle.(tg.InputFileLocationClass)
	if !ok {
		return nil, fmt.Errorf("%w: handle %T", domain.ErrUnsupportedMedia, media.Handle)
	}
	return loc, nil
}
