package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBadTimestamp is returned by ParseSentTime for input it cannot read.
var ErrBadTimestamp = errors.New("invalid ISO-8601 timestamp")

// sentTimeLayouts are tried in order. Layouts without a zone are read as UTC.
var sentTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseSentTime parses an ISO-8601 publish timestamp. A trailing "Z" (or "z")
// marks UTC; explicit offsets are honored.
func ParseSentTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrBadTimestamp)
	}
	if strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "Z"
	}
	for _, layout := range sentTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}
