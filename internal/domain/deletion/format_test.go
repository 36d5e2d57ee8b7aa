package deletion

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

func TestFormatReport_Truncation(t *testing.T) {
	long := strings.Repeat("я", MaxTextRunes+10)
	msg := domain.CachedMessage{Key: domain.MessageKey{ID: 1}, ConversationID: 2, Text: long}

	text := FormatReport(msg, time.Now())

	if !strings.Contains(text, truncationMarker) {
		t.Error("long text should carry the truncation marker")
	}
	if strings.Contains(text, strings.Repeat("я", MaxTextRunes+1)) {
		t.Error("text should be cut at the rune limit")
	}
}

func TestFormatReport_EmptyText(t *testing.T) {
	msg := domain.CachedMessage{Key: domain.MessageKey{ID: 1}, ConversationID: 2}

	text := FormatReport(msg, time.Now())

	if !strings.Contains(text, emptyText) {
		t.Errorf("empty text placeholder missing in %q", text)
	}
	if !strings.Contains(text, "Chat 2") {
		t.Error("unnamed conversation should fall back to its id")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"привет мир", 6, "привет…"},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.limit, "…"); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestFormatMediaFailure(t *testing.T) {
	err := errors.New(strings.Repeat("e", 1000))

	notice := FormatMediaFailure(domain.CachedMessage{Key: domain.MessageKey{ID: 9}}, domain.MediaVoice, err)

	if !strings.Contains(notice, "voice") {
		t.Error("notice should name the media kind")
	}
	if utf8.RuneCountInString(notice) > 300 {
		t.Errorf("notice too long: %d runes", utf8.RuneCountInString(notice))
	}
}
