package site

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// ClosingSoonWindow is how far out a future deadline still counts as
// "closing soon".
const ClosingSoonWindow = 14 * 24 * time.Hour

// NoDeadline is the display fallback for records without a deadline.
const NoDeadline = "No deadline"

// asString coerces a template value to a string. JSON gives nil for
// absent fields, which maps to the empty string.
func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

// parseDeadline parses a free-form deadline string. Deadlines come
// from many scraped sources in many formats, so parsing is fuzzy.
func parseDeadline(s string) (time.Time, error) {
	return dateparse.ParseAny(s)
}

// formatDate renders a deadline as a short "Jan 2, 2006" date.
// Absent input renders as NoDeadline, and input that doesn't parse as
// a date is returned unchanged so the page still shows something.
func (b *Builder) formatDate(v any) string {
	s := asString(v)
	if s == "" {
		return NoDeadline
	}
	t, err := parseDeadline(s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// isClosingSoon reports whether a deadline is strictly in the future
// and within the closing-soon window. Absent, unparseable, and past
// deadlines are all false.
func (b *Builder) isClosingSoon(v any) bool {
	s := asString(v)
	if s == "" {
		return false
	}
	t, err := parseDeadline(s)
	if err != nil {
		return false
	}
	now := b.now()
	return t.After(now) && !t.After(now.Add(ClosingSoonWindow))
}

// isExpired reports whether a deadline is strictly in the past.
// Absent and unparseable deadlines are false.
func (b *Builder) isExpired(v any) bool {
	s := asString(v)
	if s == "" {
		return false
	}
	t, err := parseDeadline(s)
	if err != nil {
		return false
	}
	return t.Before(b.now())
}
