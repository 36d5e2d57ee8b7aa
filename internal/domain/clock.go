package domain

import (
	"fmt"
	"time"
)

// DayLayout is the layout of daily statistics keys
const DayLayout = "2006-01-02"

// ReportZone returns the fixed-offset zone used for calendar days and report boundaries
func ReportZone(offsetHours int) *time.Location {
	name := fmt.Sprintf("UTC%+d", offsetHours)
	if offsetHours == 3 {
		name = "MSK"
	}
	return time.FixedZone(name, offsetHours*3600)
}

// DayKey returns the calendar day of t in loc
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}
