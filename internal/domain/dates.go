package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// RequestDateLayout is the DD-MM-YYYY form accepted by the prediction API.
	RequestDateLayout = "02-01-2006"

	// ArchiveDateLayout is the YYYYMMDD form embedded in daily file names.
	ArchiveDateLayout = "20060102"
)

// timestampLayouts are tried in order when parsing data_hora_gmt.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a data_hora_gmt value as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", ErrInputFormat, s)
}

// ParseRequestDate parses a DD-MM-YYYY date as midnight UTC.
func ParseRequestDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(RequestDateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be DD-MM-YYYY", ErrInputFormat, s)
	}
	return t, nil
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DailyFileName returns the INPE file name for a day.
func DailyFileName(day time.Time) string {
	return "focos_diario_br_" + day.Format(ArchiveDateLayout) + ".csv"
}
