package bot

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBot_RequiresToken(t *testing.T) {
	_, err := NewBot("", zerolog.Nop())

	require.Error(t, err)
}

func TestUnmatchedReply(t *testing.T) {
	private := models.Chat{ID: 1, Type: models.ChatTypePrivate}
	group := models.Chat{ID: -100, Type: models.ChatTypeSupergroup}

	tests := []struct {
		name   string
		update *models.Update
		want   bool
	}{
		{"no message", &models.Update{}, false},
		{"unknown command in private", &models.Update{Message: &models.Message{Chat: private, Text: "/nope"}}, true},
		{"plain text in private", &models.Update{Message: &models.Message{Chat: private, Text: "hello"}}, false},
		{"command in group", &models.Update{Message: &models.Message{Chat: group, Text: "/nope"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok := unmatchedReply(tt.update)
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.Equal(t, unknownCommandText, text)
			}
		})
	}
}
