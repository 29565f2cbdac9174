package utils

import (
	"fmt"
	"strings"
	"time"
)

// Booking forms post datetime-local values without a zone; those are read as local time.
var tripLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func ParseTripTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range tripLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date/time %q", value)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

const DisplayTimeLayout = "02 Jan 2006, 03:04 PM"

func FormatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(DisplayTimeLayout)
}
