package util

import (
	"fmt"
	"time"
)

// accepted layouts for operator-supplied timestamps, most specific first
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp parses an RFC 3339 style timestamp. Values without a zone
// are read as UTC. The result is always in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse %q as timestamp", s)
}
