// Package timeparse interprets free-form reminder expressions such as
// "2020-04-13 06:12 Do something!", "4:13 PM call mom" or "5 weeks renew".
//
// Two grammar families are tried in order. Absolute patterns resolve missing
// fields from "now" in the user's zone; the single relative pattern sums a
// sequence of signed <number><unit> offsets. The first matching pattern wins
// and whatever follows the time expression is returned as the reminder text.
package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTimeExpression = errors.New("invalid time expression")
	ErrInvalidDateFields     = errors.New("invalid date fields")
	ErrUnsupportedPrecision  = errors.New("second precision is not supported")
	ErrInvalidUnit           = errors.New("invalid unit")
	ErrDurationOverflow      = errors.New("duration overflow")
	ErrReminderInPast        = errors.New("reminder is in the past")
)

// pastTolerance is how far behind now a resolved instant may be before it is
// rejected as being in the past.
const pastTolerance = time.Second

// Result is a parsed reminder expression.
type Result struct {
	// Due is the absolute instant in UTC.
	Due time.Time

	// Text is the input left over after the time expression.
	Text string

	// Absolute is true when an absolute pattern matched.
	Absolute bool
}

type resolveFunc func(fields map[string]string, loc *time.Location, now time.Time) (time.Time, error)

// pattern pairs a grammar rule with the function that turns its named
// captures into an instant. Every regexp captures the remainder as "text".
type pattern struct {
	name    string
	re      *regexp.Regexp
	resolve resolveFunc
}

// absolutePatterns are ordered most specific first.
var absolutePatterns = []pattern{
	{
		name:    "date-time",
		re:      regexp.MustCompile(`(?i)^\s*(?P<year>\d{4})[-/](?P<month>\d+)[-/](?P<day>\d+) (?P<hour>\d+):(?P<minute>\d\d)(?:\s*(?P<merid>am|pm)\b)?\s*(?P<text>.*)$`),
		resolve: resolveAbsolute,
	},
	{
		name:    "date",
		re:      regexp.MustCompile(`(?i)^\s*(?P<year>\d{4})[-/](?P<month>\d+)[-/](?P<day>\d+)\s*(?P<text>.*)$`),
		resolve: resolveAbsolute,
	},
	{
		name:    "month-day",
		re:      regexp.MustCompile(`(?i)^\s*(?P<month>\d+)[-/](?P<day>\d+)\s*(?P<text>.*)$`),
		resolve: resolveAbsolute,
	},
	{
		name:    "clock",
		re:      regexp.MustCompile(`(?i)^\s*(?P<hour>\d+):(?P<minute>\d\d)(?:\s*(?P<merid>am|pm)\b)?\s*(?P<text>.*)$`),
		resolve: resolveAbsolute,
	},
	{
		name:    "hour",
		re:      regexp.MustCompile(`(?i)^\s*(?P<hour>\d+)\s*(?P<merid>am|pm)\b\s*(?P<text>.*)$`),
		resolve: resolveAbsolute,
	},
}

var relativePatterns = []pattern{
	{
		name:    "offsets",
		re:      regexp.MustCompile(`(?i)^\s*(?P<offsets>(?:-?\d+\s*[mhdwys]\w*\s*)+)\b\s+(?P<text>.*)$`),
		resolve: resolveRelative,
	},
}

// reOffset splits an offsets capture into number/unit tokens.
var reOffset = regexp.MustCompile(`(-?\d+)\s*([a-z]+)`)

// Parse resolves input against now in loc. The returned Due is always UTC.
func Parse(input string, loc *time.Location, now time.Time) (Result, error) {
	if loc == nil {
		loc = time.UTC
	}

	res, err := parseFamilies(input, loc, now)
	if err != nil {
		return Result{}, err
	}
	if res.Due.Before(now.Add(-pastTolerance)) {
		return Result{}, ErrReminderInPast
	}
	return res, nil
}

// IsAbsolute reports whether input would be handled by the absolute family.
// Callers use it to insist on a configured timezone before parsing.
func IsAbsolute(input string) bool {
	for _, p := range absolutePatterns {
		if p.re.MatchString(input) {
			return true
		}
	}
	return false
}

func parseFamilies(input string, loc *time.Location, now time.Time) (Result, error) {
	families := []struct {
		patterns []pattern
		absolute bool
	}{
		{absolutePatterns, true},
		{relativePatterns, false},
	}

	for _, family := range families {
		for _, p := range family.patterns {
			fields, ok := match(p.re, input)
			if !ok {
				continue
			}
			due, err := p.resolve(fields, loc, now)
			if err != nil {
				return Result{}, err
			}
			return Result{Due: due.UTC(), Text: fields["text"], Absolute: family.absolute}, nil
		}
	}

	return Result{}, fmt.Errorf("%w: %q", ErrInvalidTimeExpression, input)
}

// match returns the non-empty named captures of re in s.
func match(re *regexp.Regexp, s string) (map[string]string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	fields := make(map[string]string, len(m))
	for i, name := range re.SubexpNames() {
		if name != "" && m[i] != "" {
			fields[name] = m[i]
		}
	}
	return fields, true
}

// resolveAbsolute fills missing fields from now in loc and applies the hour
// heuristics: "pm" adds 12 to hours up to 12, a bare hour earlier than the
// current one is taken as the afternoon, and hours past 23 roll into the day.
// A result earlier than now moves to the next day.
func resolveAbsolute(fields map[string]string, loc *time.Location, now time.Time) (time.Time, error) {
	local := now.In(loc)

	year, month, day := local.Year(), int(local.Month()), local.Day()
	hour, minute := local.Hour(), local.Minute()

	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"year", &year},
		{"month", &month},
		{"day", &day},
		{"hour", &hour},
		{"minute", &minute},
	} {
		v, ok := fields[f.name]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s %s is out of range", ErrInvalidDateFields, f.name, v)
		}
		*f.dst = n
	}

	switch merid := strings.ToLower(fields["merid"]); {
	case merid == "pm" && hour <= 12:
		hour += 12
	case merid == "" && hour < local.Hour():
		hour += 12
	}
	if hour >= 24 {
		day += hour / 24
		hour %= 24
	}

	if err := validateFields(year, month, day, hour, minute); err != nil {
		return time.Time{}, err
	}

	due := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	if due.Before(local) {
		due = due.AddDate(0, 0, 1)
	}
	return due.UTC(), nil
}

func validateFields(year, month, day, hour, minute int) error {
	switch {
	case year < 1 || year > 9999:
		return fmt.Errorf("%w: year %d is out of range", ErrInvalidDateFields, year)
	case month < 1 || month > 12:
		return fmt.Errorf("%w: month must be in 1..12", ErrInvalidDateFields)
	case day < 1 || day > daysIn(time.Month(month), year):
		return fmt.Errorf("%w: day is out of range for month", ErrInvalidDateFields)
	case hour < 0 || hour > 23:
		return fmt.Errorf("%w: hour must be in 0..23", ErrInvalidDateFields)
	case minute < 0 || minute > 59:
		return fmt.Errorf("%w: minute must be in 0..59", ErrInvalidDateFields)
	}
	return nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Minutes per unit letter. A year is a flat 365 days.
var unitMinutes = map[byte]int64{
	'm': 1,
	'h': 60,
	'd': 24 * 60,
	'w': 7 * 24 * 60,
	'y': 365 * 24 * 60,
}

// maxOffsetMinutes bounds the summed offset well past the representable year
// range so the arithmetic below cannot overflow.
const maxOffsetMinutes = 10000 * 366 * 24 * 60

// resolveRelative sums the offsets capture and adds it to now.
func resolveRelative(fields map[string]string, _ *time.Location, now time.Time) (time.Time, error) {
	total, err := SumOffsets(fields["offsets"])
	if err != nil {
		return time.Time{}, err
	}

	due := now.UTC().
		AddDate(0, 0, int(total/(24*60))).
		Add(time.Duration(total%(24*60)) * time.Minute)
	if due.Year() < 1 || due.Year() > 9999 {
		return time.Time{}, ErrDurationOverflow
	}
	return due, nil
}

// SumOffsets adds up a sequence of offsets like "1d 2h -30m" and returns the
// total in minutes. Units are matched on their first letter; "s" is refused.
func SumOffsets(s string) (int64, error) {
	var total int64
	for _, tok := range reOffset.FindAllStringSubmatch(strings.ToLower(s), -1) {
		unit := tok[2]
		if unit[0] == 's' {
			return 0, ErrUnsupportedPrecision
		}
		per, ok := unitMinutes[unit[0]]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrInvalidUnit, unit)
		}

		n, err := strconv.ParseInt(tok[1], 10, 64)
		if err != nil || n > maxOffsetMinutes/per || n < -maxOffsetMinutes/per {
			return 0, ErrDurationOverflow
		}
		total += n * per
		if total > maxOffsetMinutes || total < -maxOffsetMinutes {
			return 0, ErrDurationOverflow
		}
	}
	return total, nil
}
