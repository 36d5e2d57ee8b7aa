package deletion

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

const (
	// MaxTextRunes is the longest message text quoted in a report
	MaxTextRunes = 3000
	// MaxErrorRunes is the longest error detail quoted in a media failure notice
	MaxErrorRunes = 200

	truncationMarker = "... (текст обрезан)"
	emptyText        = "Текст отсутствует"
	reportTimeLayout = "02.01.2006 15:04:05"
)

// FormatReport builds the text of a deletion report
func FormatReport(msg domain.CachedMessage, observedAt time.Time) string {
	var b strings.Builder

	b.WriteString("🗑️ Удалённое сообщение\n\n")
	fmt.Fprintf(&b, "👤 Из диалога: %s\n", conversationName(msg))
	fmt.Fprintf(&b, "🆔 ID чата: %d\n", msg.ConversationID)
	fmt.Fprintf(&b, "📝 ID сообщения: %d\n", msg.Key.ID)
	fmt.Fprintf(&b, "⏰ Время удаления: %s\n", observedAt.Format(reportTimeLayout))

	b.WriteString("\n📄 Содержимое:\n")
	if msg.Text == "" {
		b.WriteString(emptyText)
	} else {
		b.WriteString(Truncate(msg.Text, MaxTextRunes, truncationMarker))
	}
	if msg.Media != nil {
		b.WriteString("\n📎 Вложение будет отправлено отдельно")
	}

	return b.String()
}

// FormatCaption builds the short caption sent with recovered media
func FormatCaption(msg domain.CachedMessage) string {
	return fmt.Sprintf("🗑️ Медиа из удалённого сообщения\n👤 Из: %s\n📝 ID: %d", conversationName(msg), msg.Key.ID)
}

// FormatMediaFailure builds the notice sent when media could not be delivered
func FormatMediaFailure(msg domain.CachedMessage, kind domain.MediaKind, err error) string {
	detail := "unknown error"
	if err != nil {
		detail = Truncate(err.Error(), MaxErrorRunes, "")
	}
	return fmt.Sprintf(
		"⚠️ Не удалось отправить медиа из сообщения %d\nТип медиа: %s\nОшибка: %s",
		msg.Key.ID, kind, detail,
	)
}

// Truncate cuts s to at most limit runes and appends marker when something was cut
func Truncate(s string, limit int, marker string) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + marker
}

func conversationName(msg domain.CachedMessage) string {
	if msg.ConversationName != "" {
		return msg.ConversationName
	}
	return fmt.Sprintf("Chat %d", msg.ConversationID)
}
