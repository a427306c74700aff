package api

import (
	"fmt"
	"strings"
	"time"
)

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseServerTime parses a created timestamp from the API. Timestamps
// without a zone are UTC. Zoned timestamps keep their instant. The result
// is always in UTC.
func ParseServerTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// FormatServerTime renders t the way the API sends it: naive, in UTC.
func FormatServerTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000")
}
