package report

import (
	"fmt"
	"strings"
	"time"
)

// FormatSummary builds the scheduled report of one account
func FormatSummary(account string, day, boundary time.Time, count, rolloverHour int) string {
	zone := zoneLabel(boundary)

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Отчёт по проекту %s\n", account)
	fmt.Fprintf(&b, "📅 Дата: %s\n", day.Format("02.01.2006"))
	fmt.Fprintf(&b, "⏰ Время: %s %s\n", boundary.Format("15:04"), zone)
	fmt.Fprintf(&b, "💬 Новых диалогов: %d\n", count)
	fmt.Fprintf(&b, "🕐 Период: с %02d:00 %s", rolloverHour, zone)
	return b.String()
}

func zoneLabel(t time.Time) string {
	name, offset := t.Zone()
	if offset == 3*3600 {
		return "МСК"
	}
	return name
}
