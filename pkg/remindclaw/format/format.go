// Package format renders reminders and durations for chat replies.
package format

import (
	"fmt"
	"strings"
	"time"
)

const (
	dueLayout   = "Jan 2, 2006 at 3:04 PM"
	clockLayout = "03:04 PM"
)

// Reminder renders a reminder as
//
//	'<text>' on Apr 13, 2020 at 4:13 PM EST (EDT) (6 hrs 13 mins from now)
//
// with the due instant shown in loc.
func Reminder(due time.Time, text string, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.UTC
	}

	remaining := "<1 minute from now"
	if left := due.Sub(now); left > time.Minute {
		remaining = Countdown(left) + " from now"
	}

	return fmt.Sprintf("'%s' on %s %s (%s)",
		text, due.In(loc).Format(dueLayout), ZoneName(loc, due), remaining)
}

// ZoneName returns the abbreviation loc uses on January 1 of at's year. When
// the abbreviation in effect at at differs, it is appended in parentheses,
// e.g. "EST (EDT)".
func ZoneName(loc *time.Location, at time.Time) string {
	local := at.In(loc)
	jan, _ := time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, loc).Zone()
	cur, _ := local.Zone()
	if cur != "" && cur != jan {
		return fmt.Sprintf("%s (%s)", jan, cur)
	}
	return jan
}

// Countdown spells d as years, days, hours and minutes, largest first,
// leaving out zero parts. Two seconds are added before truncating so a
// reminder set for "5m" reads "5 mins" rather than "4 mins".
func Countdown(d time.Duration) string {
	secs := int64(d/time.Second) + 2
	if secs < 0 {
		secs = 0
	}

	units := []struct {
		size       int64
		one, other string
	}{
		{365 * 24 * 3600, "yr", "yrs"},
		{24 * 3600, "day", "days"},
		{3600, "hr", "hrs"},
		{60, "min", "mins"},
	}

	var parts []string
	for _, u := range units {
		n := secs / u.size
		secs %= u.size
		switch {
		case n == 1:
			parts = append(parts, "1 "+u.one)
		case n > 1:
			parts = append(parts, fmt.Sprintf("%d %s", n, u.other))
		}
	}
	return strings.Join(parts, " ")
}

// Clock renders t as a zero-padded 12-hour time, e.g. "04:13 PM".
func Clock(t time.Time) string {
	return t.Format(clockLayout)
}

// HoursMinutes renders d as "6hrs 30mins".
func HoursMinutes(d time.Duration) string {
	mins := int64(d / time.Minute)
	return fmt.Sprintf("%dhrs %dmins", mins/60, mins%60)
}
