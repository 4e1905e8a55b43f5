package domain

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are the accepted record date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
}

// ParseDate interprets a record date and normalizes it to UTC midnight.
func ParseDate(text string) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrUnparsableDate)
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, text)
}
