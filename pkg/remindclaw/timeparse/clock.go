package timeparse

import (
	"fmt"
	"strings"
	"time"
)

// clockLayouts are tried in order against the space-stripped, uppercased input.
var clockLayouts = []string{"15:04", "3:04PM", "3PM"}

// ParseClock reads a wall-clock time such as "16:30", "4:30 pm" or "4PM".
func ParseClock(s string) (hour, minute int, err error) {
	v := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	for _, layout := range clockLayouts {
		t, perr := time.Parse(layout, v)
		if perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeExpression, s)
}

// Until returns how long until the wall clock in now's location next reads
// hour:minute. A time already passed today refers to tomorrow.
func Until(now time.Time, hour, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, now.Second(), now.Nanosecond(), now.Location())
	if next.Before(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
