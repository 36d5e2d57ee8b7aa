package report

import (
	"testing"
	"time"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

func TestNextBoundary(t *testing.T) {
	loc := domain.ReportZone(3)
	at := func(day, hour, min, sec int) time.Time {
		return time.Date(2024, 5, day, hour, min, sec, 0, loc)
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"late evening goes to midnight", at(1, 21, 30, 0), at(2, 0, 0, 0)},
		{"last second of the day", at(1, 23, 59, 59), at(2, 0, 0, 0)},
		{"exactly midnight", at(2, 0, 0, 0), at(2, 4, 0, 0)},
		{"just after midnight", at(2, 0, 0, 1), at(2, 4, 0, 0)},
		{"exactly on boundary is skipped", at(1, 8, 0, 0), at(1, 12, 0, 0)},
		{"between boundaries", at(1, 13, 15, 0), at(1, 16, 0, 0)},
		{"utc input is converted", time.Date(2024, 5, 1, 2, 0, 0, 0, time.UTC), at(1, 8, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextBoundary(tt.now, loc)
			if !got.Equal(tt.want) {
				t.Errorf("NextBoundary(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestPeriodDay(t *testing.T) {
	loc := domain.ReportZone(3)

	midnight := time.Date(2024, 5, 2, 0, 0, 0, 0, loc)
	if got := domain.DayKey(PeriodDay(midnight, loc), loc); got != "2024-05-01" {
		t.Errorf("PeriodDay(midnight) = %s, want 2024-05-01", got)
	}

	noon := time.Date(2024, 5, 2, 12, 0, 0, 0, loc)
	if got := domain.DayKey(PeriodDay(noon, loc), loc); got != "2024-05-02" {
		t.Errorf("PeriodDay(noon) = %s, want 2024-05-02", got)
	}
}

func TestFormatSummary(t *testing.T) {
	loc := domain.ReportZone(3)
	boundary := time.Date(2024, 5, 2, 0, 0, 0, 0, loc)

	got := FormatSummary("alpha", PeriodDay(boundary, loc), boundary, 7, 4)

	want := "📊 Отчёт по проекту alpha\n" +
		"📅 Дата: 01.05.2024\n" +
		"⏰ Время: 00:00 МСК\n" +
		"💬 Новых диалогов: 7\n" +
		"🕐 Период: с 04:00 МСК"
	if got != want {
		t.Errorf("FormatSummary() =\n%s\nwant\n%s", got, want)
	}
}
