package util

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

const reportTimestampLayout = "2006-01-02 03:04 PM"

func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ReportClock returns "now" in the report's timezone.
func ReportClock(timezone string) (func() time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", timezone, err)
	}
	return func() time.Time {
		return time.Now().In(loc)
	}, nil
}

// FormatReportTimestamp renders e.g. "2024-06-07 04:00 PM ET" for New York.
func FormatReportTimestamp(t time.Time) string {
	return fmt.Sprintf("%s %s", t.Format(reportTimestampLayout), zoneLabel(t))
}

func zoneLabel(t time.Time) string {
	if t.Location().String() == "America/New_York" {
		return "ET"
	}
	name, _ := t.Zone()
	return name
}

func FormatDate(t time.Time) string {
	return t.Format(layout)
}
