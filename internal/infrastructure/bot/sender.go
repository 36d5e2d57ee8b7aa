package bot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

// Constants for Telegram Bot API
const (
	MaxMessageLength = 4096
	MaxCaptionLength = 1024
	RequestTimeout   = 30 * time.Second
	UploadTimeout    = 120 * time.Second
)

// API is the subset of the bot client used for delivery
type API interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	SendVoice(ctx context.Context, params *tgbot.SendVoiceParams) (*models.Message, error)
	SendVideoNote(ctx context.Context, params *tgbot.SendVideoNoteParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *tgbot.SendPhotoParams) (*models.Message, error)
	SendVideo(ctx context.Context, params *tgbot.SendVideoParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *tgbot.SendDocumentParams) (*models.Message, error)
}

// Sender delivers reports to chats and forum topics
type Sender struct {
	api    API
	global *rate.Limiter
	logger zerolog.Logger

	mu       sync.Mutex
	perChat  map[int64]*rate.Limiter
	chatRate rate.Limit
}

// NewSender creates a new Sender.
// Bot API allows about 30 messages per second overall and 20 per minute per group.
func NewSender(api API, logger zerolog.Logger) *Sender {
	return &Sender{
		api:      api,
		global:   rate.NewLimiter(rate.Limit(25), 5),
		perChat:  make(map[int64]*rate.Limiter),
		chatRate: rate.Every(3 * time.Second),
		logger:   logger.With().Str("component", "bot_sender").Logger(),
	}
}

// SendText sends text, splitting it when it exceeds the message limit
func (s *Sender) SendText(ctx context.Context, dest domain.Destination, text string) error {
	if text == "" {
		return fmt.Errorf("message text cannot be empty")
	}

	for _, part := range splitText(text, MaxMessageLength) {
		if err := s.wait(ctx, dest.ChatID); err != nil {
			return err
		}

		msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
		_, err := s.api.SendMessage(msgCtx, &tgbot.SendMessageParams{
			ChatID:          dest.ChatID,
			MessageThreadID: dest.ThreadID,
			Text:            part,
		})
		cancel()

		if err != nil {
			return s.handleSendError(dest, err)
		}
	}

	s.logger.Debug().
		Int64("chat_id", dest.ChatID).
		Int("thread_id", dest.ThreadID).
		Int("text_length", len(text)).
		Msg("message sent")
	return nil
}

// SendMedia uploads a file using the method matching its kind
func (s *Sender) SendMedia(ctx context.Context, dest domain.Destination, upload domain.MediaUpload) error {
	file, err := os.Open(upload.Path)
	if err != nil {
		return fmt.Errorf("failed to open media file: %w", err)
	}
	defer file.Close()

	if err := s.wait(ctx, dest.ChatID); err != nil {
		return err
	}

	msgCtx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	input := &models.InputFileUpload{Filename: upload.FileName, Data: file}
	caption := truncateRunes(upload.Caption, MaxCaptionLength)
	method := methodFor(upload)

	switch method {
	case "voice":
		_, err = s.api.SendVoice(msgCtx, &tgbot.SendVoiceParams{
			ChatID:          dest.ChatID,
			MessageThreadID: dest.ThreadID,
			Voice:           input,
			Caption:         caption,
		})
	case "video_note":
		// Video notes carry no caption
		_, err = s.api.SendVideoNote(msgCtx, &tgbot.SendVideoNoteParams{
			ChatID:          dest.ChatID,
			MessageThreadID: dest.ThreadID,
			VideoNote:       input,
		})
		if err == nil && caption != "" {
			cancel()
			return s.SendText(ctx, dest, caption)
		}
	case "photo":
		_, err = s.api.SendPhoto(msgCtx, &tgbot.SendPhotoParams{
			ChatID:          dest.ChatID,
			MessageThreadID: dest.ThreadID,
			Photo:           input,
			Caption:         caption,
		})
	case "video":
		_, err = s.api.SendVideo(msgCtx, &tgbot.SendVideoParams{
			ChatID:          dest.ChatID,
			MessageThreadID: dest.ThreadID,
			Video:           input,
			Caption:         caption,
		})
	default:
		_, err = s.api.SendDocument(msgCtx, &tgbot.SendDocumentParams{
			ChatID:          dest.ChatID,
			MessageThreadID: dest.ThreadID,
			Document:        input,
			Caption:         caption,
		})
	}

	if err != nil {
		return s.handleSendError(dest, err)
	}

	s.logger.Debug().
		Int64("chat_id", dest.ChatID).
		Str("method", method).
		Str("file_name", upload.FileName).
		Msg("media sent")
	return nil
}

// methodFor picks the Bot API method for an upload
func methodFor(upload domain.MediaUpload) string {
	switch upload.Kind {
	case domain.MediaVoice:
		return "voice"
	case domain.MediaRoundVideo:
		return "video_note"
	}

	mime := strings.ToLower(upload.MimeType)
	switch {
	case mime == "image/jpeg" || mime == "image/png":
		return "photo"
	case mime == "video/mp4":
		return "video"
	default:
		return "document"
	}
}

func (s *Sender) wait(ctx context.Context, chatID int64) error {
	if err := s.global.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	s.mu.Lock()
	limiter, ok := s.perChat[chatID]
	if !ok {
		limiter = rate.NewLimiter(s.chatRate, 5)
		s.perChat[chatID] = limiter
	}
	s.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	return nil
}

func (s *Sender) handleSendError(dest domain.Destination, err error) error {
	errorMsg := err.Error()
	log := s.logger.Warn().Int64("chat_id", dest.ChatID).Int("thread_id", dest.ThreadID)

	switch {
	case strings.Contains(errorMsg, "Forbidden"):
		log.Msg("bot was removed from the chat")
		return fmt.Errorf("bot has no access to chat %d: %w", dest.ChatID, err)

	case strings.Contains(errorMsg, "chat not found"):
		log.Msg("chat not found")
		return fmt.Errorf("chat %d not found: %w", dest.ChatID, err)

	case strings.Contains(errorMsg, "Too Many Requests"):
		log.Msg("rate limit exceeded")
		return fmt.Errorf("rate limit exceeded: %w", err)

	default:
		s.logger.Error().Int64("chat_id", dest.ChatID).Err(err).Msg("failed to send message")
		return fmt.Errorf("failed to send message: %w", err)
	}
}

// splitText splits text into parts of at most limit runes, preferring line breaks
func splitText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// Ensure Sender implements domain.Sender interface
var _ domain.Sender = (*Sender)(nil)
