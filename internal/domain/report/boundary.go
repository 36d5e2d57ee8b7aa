// Package report sends scheduled per-account summaries and rolls daily statistics over
package report

import "time"

// BoundaryHours are the local hours at which summaries are sent. 24 is the next day's midnight.
var BoundaryHours = []int{4, 8, 12, 16, 20, 24}

// NextBoundary returns the earliest report boundary strictly after now, in loc
func NextBoundary(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	for _, hour := range BoundaryHours {
		boundary := midnight.Add(time.Duration(hour) * time.Hour)
		if boundary.After(local) {
			return boundary
		}
	}

	// Unreachable: the next midnight is always after now
	return midnight.Add(24 * time.Hour)
}

// PeriodDay returns the calendar day a boundary closes.
// The midnight boundary closes the previous day.
func PeriodDay(boundary time.Time, loc *time.Location) time.Time {
	return boundary.In(loc).Add(-time.Nanosecond)
}
