package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

type mockAPI struct {
	mu       sync.Mutex
	calls    []string
	texts    []*tgbot.SendMessageParams
	captions []string
	threads  []int
	err      error
}

func (m *mockAPI) record(method string, thread int, caption string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method)
	m.threads = append(m.threads, thread)
	m.captions = append(m.captions, caption)
	if m.err != nil {
		return nil, m.err
	}
	return &models.Message{ID: len(m.calls)}, nil
}

func (m *mockAPI) SendMessage(_ context.Context, p *tgbot.SendMessageParams) (*models.Message, error) {
	m.mu.Lock()
	m.texts = append(m.texts, p)
	m.mu.Unlock()
	return m.record("message", p.MessageThreadID, "")
}

func (m *mockAPI) SendVoice(_ context.Context, p *tgbot.SendVoiceParams) (*models.Message, error) {
	return m.record("voice", p.MessageThreadID, p.Caption)
}

func (m *mockAPI) SendVideoNote(_ context.Context, p *tgbot.SendVideoNoteParams) (*models.Message, error) {
	return m.record("video_note", p.MessageThreadID, "")
}

func (m *mockAPI) SendPhoto(_ context.Context, p *tgbot.SendPhotoParams) (*models.Message, error) {
	return m.record("photo", p.MessageThreadID, p.Caption)
}

func (m *mockAPI) SendVideo(_ context.Context, p *tgbot.SendVideoParams) (*models.Message, error) {
	return m.record("video", p.MessageThreadID, p.Caption)
}

func (m *mockAPI) SendDocument(_ context.Context, p *tgbot.SendDocumentParams) (*models.Message, error) {
	return m.record("document", p.MessageThreadID, p.Caption)
}

func tempFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "media.bin")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))
	return path
}

func TestSender_SendText_Thread(t *testing.T) {
	api := &mockAPI{}
	s := NewSender(api, zerolog.Nop())

	err := s.SendText(context.Background(), domain.Destination{ChatID: -100, ThreadID: 12}, "hello")
	require.NoError(t, err)

	require.Len(t, api.texts, 1)
	assert.Equal(t, int64(-100), api.texts[0].ChatID)
	assert.Equal(t, 12, api.texts[0].MessageThreadID)
	assert.Equal(t, "hello", api.texts[0].Text)
}

func TestSender_SendText_Splits(t *testing.T) {
	api := &mockAPI{}
	s := NewSender(api, zerolog.Nop())

	text := strings.Repeat("я", MaxMessageLength+10)
	require.NoError(t, s.SendText(context.Background(), domain.Destination{ChatID: 1}, text))
	assert.Len(t, api.texts, 2)
}

func TestSender_SendMedia_Methods(t *testing.T) {
	tests := []struct {
		name   string
		upload domain.MediaUpload
		want   []string
	}{
		{"voice", domain.MediaUpload{Kind: domain.MediaVoice, Caption: "c"}, []string{"voice"}},
		{"round video sends caption separately", domain.MediaUpload{Kind: domain.MediaRoundVideo, Caption: "c"}, []string{"video_note", "message"}},
		{"jpeg photo", domain.MediaUpload{MimeType: "image/jpeg"}, []string{"photo"}},
		{"mp4 video", domain.MediaUpload{MimeType: "video/mp4"}, []string{"video"}},
		{"anything else", domain.MediaUpload{MimeType: "application/pdf"}, []string{"document"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{}
			s := NewSender(api, zerolog.Nop())

			upload := tt.upload
			upload.Path = tempFile(t)
			upload.FileName = "file"

			require.NoError(t, s.SendMedia(context.Background(), domain.Destination{ChatID: 1, ThreadID: 3}, upload))
			assert.Equal(t, tt.want, api.calls)
			for _, thread := range api.threads {
				assert.Equal(t, 3, thread)
			}
		})
	}
}

func TestSender_SendMedia_Errors(t *testing.T) {
	api := &mockAPI{err: errors.New("Forbidden: bot was kicked")}
	s := NewSender(api, zerolog.Nop())

	err := s.SendMedia(context.Background(), domain.Destination{ChatID: 1}, domain.MediaUpload{Path: tempFile(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access")

	err = s.SendMedia(context.Background(), domain.Destination{ChatID: 1}, domain.MediaUpload{Path: "/nonexistent/file"})
	require.Error(t, err)
}

func TestSplitText(t *testing.T) {
	text := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)

	parts := splitText(text, 10)
	require.Len(t, parts, 2)
	assert.Equal(t, strings.Repeat("a", 6)+"\n", parts[0])
	assert.Equal(t, strings.Repeat("b", 6), parts[1])

	assert.Equal(t, []string{"short"}, splitText("short", 10))
}
