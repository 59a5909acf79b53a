package view

import (
	"fmt"
	"time"
)

const (
	shortDateLayout   = "1/2/2006"
	messageTimeLayout = "3:04 PM"
)

// RelativeTime renders how long ago t was, relative to now. Anything a week
// or older falls back to a short absolute date.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
	return t.In(now.Location()).Format(shortDateLayout)
}

// MessageTime renders a send time as hour:minute in loc.
func MessageTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(messageTimeLayout)
}
