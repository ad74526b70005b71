package models

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout is the wire format of every timestamp: a local date-time without zone.
const DateTimeLayout = "2006-01-02T15:04:05"

var dateTimeLayouts = []string{
	DateTimeLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.RFC3339Nano,
}

// ParseDateTime accepts local date-times with or without seconds and fractions,
// and RFC 3339 timestamps carrying an explicit offset.
func ParseDateTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date-time")
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date-time format %q", raw)
}

// FormatDateTime renders t in the server's local zone.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(DateTimeLayout)
}

// Now returns the current time truncated to whole seconds, which is the precision
// every temporal comparison in the service works with.
func Now() time.Time {
	return time.Now().Truncate(time.Second)
}
