package release

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDateFormat is returned when a date matches none of the accepted layouts.
var ErrDateFormat = errors.New("date must be in one of the formats YYYY-MM-DD, YYYY-MM, YYYY")

// dateLayouts are tried from the most to the least specific. Partial dates
// resolve missing month and day to 1. Month and day must be zero-padded, as
// MusicBrainz always emits them; "2023-1" is a format error.
var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// ParseDate parses a MusicBrainz partial date.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrDateFormat, value)
}
