package transform

import (
	"strings"
	"time"
)

// dateLayouts is the ordered list of accepted issuer date formats. The
// first layout that parses wins; adding an issuer means appending here.
var dateLayouts = []string{
	"January 2, 2006",          // Discover, Capital One ("February 4, 2026")
	"Jan 2, 2006 at 3:04 PM ET", // Chase ("Aug 9, 2025 at 5:49 PM ET")
}

// NormalizeDate parses a free-text transaction date into ISO YYYY-MM-DD
// form. An unparseable or empty string returns ("", false): absence, not
// an error.
func NormalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// dayOfMonth extracts the day from an ISO date, defaulting to 1 when the
// date is absent so encoding stays total.
func dayOfMonth(isoDate *string) int {
	if isoDate == nil {
		return 1
	}
	t, err := time.Parse("2006-01-02", *isoDate)
	if err != nil {
		return 1
	}
	return t.Day()
}
