package timeparse

import (
	"errors"
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q): %v", name, err)
	}
	return loc
}

func utc(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestParseAbsolute(t *testing.T) {
	t.Parallel()

	ny := mustLoad(t, "America/New_York")
	now := utc(2020, time.April, 13, 14, 0) // 10:00 EDT

	tests := []struct {
		name     string
		input    string
		wantDue  time.Time
		wantText string
	}{
		{"clock with pm", "4:13 PM Do something", utc(2020, time.April, 13, 20, 13), "Do something"},
		{"clock pm no space", "4:13pm call mom", utc(2020, time.April, 13, 20, 13), "call mom"},
		{"bare hour earlier than now is afternoon", "9:30 standup", utc(2020, time.April, 14, 1, 30), "standup"},
		{"date time earlier hour is afternoon", "2020-04-13 06:12 Do something!", utc(2020, time.April, 13, 22, 12), "Do something!"},
		{"explicit am earlier today rolls to tomorrow", "2020-04-13 06:12 am Wake up", utc(2020, time.April, 14, 10, 12), "Wake up"},
		{"hour rollover", "25:00 party", utc(2020, time.April, 14, 5, 0), "party"},
		{"hour with meridiem", "5pm dinner", utc(2020, time.April, 13, 21, 0), "dinner"},
		{"upper case meridiem", "5 PM dinner", utc(2020, time.April, 13, 21, 0), "dinner"},
		{"noon rolls to midnight", "12pm lunch", utc(2020, time.April, 14, 4, 0), "lunch"},
		{"12am is taken literally", "12am brunch", utc(2020, time.April, 13, 16, 0), "brunch"},
		{"meridiem needs a word boundary", "4:13 pmx", utc(2020, time.April, 13, 20, 13), "pmx"},
		{"month day keeps current time", "05-01 Taxes", utc(2020, time.May, 1, 14, 0), "Taxes"},
		{"date with slashes", "2021/01/02 New year", utc(2021, time.January, 2, 15, 0), "New year"},
		{"leading whitespace", "   4:13 PM x", utc(2020, time.April, 13, 20, 13), "x"},
		{"empty text", "4:13 PM", utc(2020, time.April, 13, 20, 13), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.input, ny, now)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if !got.Due.Equal(tt.wantDue) {
				t.Errorf("Parse(%q) due = %s, want %s", tt.input, got.Due, tt.wantDue)
			}
			if got.Due.Location() != time.UTC {
				t.Errorf("Parse(%q) due location = %s, want UTC", tt.input, got.Due.Location())
			}
			if got.Text != tt.wantText {
				t.Errorf("Parse(%q) text = %q, want %q", tt.input, got.Text, tt.wantText)
			}
			if !got.Absolute {
				t.Errorf("Parse(%q) should be absolute", tt.input)
			}
		})
	}
}

func TestParseMeridiemNeedsWordBoundary(t *testing.T) {
	t.Parallel()

	now := utc(2020, time.April, 13, 14, 0)
	got, err := Parse("4:13 amazing", time.UTC, now)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got.Text != "amazing" {
		t.Errorf("text = %q, want amazing", got.Text)
	}
	if !got.Due.Equal(utc(2020, time.April, 13, 16, 13)) {
		t.Errorf("due = %s, want 16:13", got.Due)
	}
}

func TestParseRelative(t *testing.T) {
	t.Parallel()

	now := utc(2021, time.January, 1, 0, 0)

	tests := []struct {
		input    string
		wantDue  time.Time
		wantText string
	}{
		{"5 weeks Do something!", utc(2021, time.February, 5, 0, 0), "Do something!"},
		{"90m stretch", utc(2021, time.January, 1, 1, 30), "stretch"},
		{"1d 2h -30m mixed", utc(2021, time.January, 2, 1, 30), "mixed"},
		{"1d2h packed", utc(2021, time.January, 2, 2, 0), "packed"},
		{"2 hours 10 minutes spelled", utc(2021, time.January, 1, 2, 10), "spelled"},
		{"1y anniversary", utc(2022, time.January, 1, 0, 0), "anniversary"},
		{"0m right now", now, "right now"},
		{"3D Upper", utc(2021, time.January, 4, 0, 0), "Upper"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.input, nil, now)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if !got.Due.Equal(tt.wantDue) {
				t.Errorf("Parse(%q) due = %s, want %s", tt.input, got.Due, tt.wantDue)
			}
			if got.Text != tt.wantText {
				t.Errorf("Parse(%q) text = %q, want %q", tt.input, got.Text, tt.wantText)
			}
			if got.Absolute {
				t.Errorf("Parse(%q) should be relative", tt.input)
			}
		})
	}
}

func TestParseRelativeIgnoresZone(t *testing.T) {
	t.Parallel()

	now := utc(2021, time.January, 1, 0, 0)
	a, err := Parse("3h x", mustLoad(t, "Asia/Tokyo"), now)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("3h x", time.UTC, now)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Due.Equal(b.Due) {
		t.Errorf("relative due depends on zone: %s vs %s", a.Due, b.Due)
	}
}

func TestParseRelativeAdditive(t *testing.T) {
	t.Parallel()

	now := utc(2021, time.January, 1, 0, 0)
	orders := [][]string{
		{"1w 2d 3h 4m x", "4m 3h 2d 1w x", "2d 4m 1w 3h x"},
		{"2h -45m x", "-45m 2h x"},
	}
	for _, group := range orders {
		first, err := Parse(group[0], time.UTC, now)
		if err != nil {
			t.Fatalf("Parse(%q): %v", group[0], err)
		}
		for _, in := range group[1:] {
			got, err := Parse(in, time.UTC, now)
			if err != nil {
				t.Fatalf("Parse(%q): %v", in, err)
			}
			if !got.Due.Equal(first.Due) {
				t.Errorf("Parse(%q) = %s, want %s as for %q", in, got.Due, first.Due, group[0])
			}
		}
	}

	got, _ := Parse("1w 2d 3h 4m x", time.UTC, now)
	want := now.Add(9*24*time.Hour + 3*time.Hour + 4*time.Minute)
	if !got.Due.Equal(want) {
		t.Errorf("sum = %s, want %s", got.Due, want)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	ny := mustLoad(t, "America/New_York")
	now := utc(2020, time.April, 13, 14, 0)

	tests := []struct {
		input string
		want  error
	}{
		{"blah blah", ErrInvalidTimeExpression},
		{"", ErrInvalidTimeExpression},
		{"5 weeks", ErrInvalidTimeExpression},
		{"10s hello", ErrUnsupportedPrecision},
		{"-5 seconds hello", ErrUnsupportedPrecision},
		{"99999999999999999999s hello", ErrUnsupportedPrecision},
		{"5m2x hello", ErrInvalidUnit},
		{"99999999999999999999y far", ErrDurationOverflow},
		{"10000y far", ErrDurationOverflow},
		{"-3000y long ago", ErrDurationOverflow},
		{"-2h yesterday", ErrReminderInPast},
		{"2019-01-01 old", ErrReminderInPast},
		{"2020-02-30 nope", ErrInvalidDateFields},
		{"2020-13-01 nope", ErrInvalidDateFields},
		{"10:75 nope", ErrInvalidDateFields},
		{"99999999999999999999:00 nope", ErrInvalidDateFields},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.input, ny, now)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	t.Parallel()

	ny := mustLoad(t, "America/New_York")
	now := utc(2020, time.April, 13, 14, 0)
	for _, in := range []string{"4:13 PM a", "2020-12-25 gifts", "5 weeks b", "25:00 c"} {
		a, errA := Parse(in, ny, now)
		b, errB := Parse(in, ny, now)
		if errA != nil || errB != nil {
			t.Fatalf("Parse(%q): %v / %v", in, errA, errB)
		}
		if a != b {
			t.Errorf("Parse(%q) not deterministic: %+v vs %+v", in, a, b)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()

	ny := mustLoad(t, "America/New_York")
	now := utc(2020, time.April, 13, 14, 0)

	// Results in the 12 o'clock hours are left out: "pm" adds 12 to 12 and
	// "12am" is taken literally, so 12:xx PM and 12:xx AM do not come back.
	inputs := []string{
		"4:13 PM a", "5pm b", "9:30 c", "2021/01/02 d", "5 weeks e", "3d 4h f",
		"2020-04-14 09:00 am g", "20h h", "11:45 am i",
	}
	for _, in := range inputs {
		first, err := Parse(in, ny, now)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		formatted := first.Due.In(ny).Format("2006-01-02 3:04 PM") + " again"
		second, err := Parse(formatted, ny, now)
		if err != nil {
			t.Fatalf("Parse(%q): %v", formatted, err)
		}
		if d := second.Due.Sub(first.Due); d < -time.Minute || d > time.Minute {
			t.Errorf("round trip of %q via %q drifted by %s (%s -> %s)", in, formatted, d, first.Due, second.Due)
		}
	}

	for formatted, want := range map[string]time.Time{
		"2020-04-14 12:30 PM again": utc(2020, time.April, 15, 4, 30),
		"2020-04-14 12:30 AM again": utc(2020, time.April, 14, 16, 30),
	} {
		got, err := Parse(formatted, ny, now)
		if err != nil {
			t.Fatalf("Parse(%q): %v", formatted, err)
		}
		if !got.Due.Equal(want) {
			t.Errorf("Parse(%q) = %s, want %s", formatted, got.Due, want)
		}
	}
}

func TestIsAbsolute(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{
		"4:13 PM x":  true,
		"2020-04-13": true,
		"05-01 x":    true,
		"5pm x":      true,
		"5 weeks x":  false,
		"-2h x":      false,
		"hello":      false,
	} {
		if got := IsAbsolute(in); got != want {
			t.Errorf("IsAbsolute(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSumOffsets(t *testing.T) {
	t.Parallel()

	got, err := SumOffsets("1d 2h -30m")
	if err != nil {
		t.Fatal(err)
	}
	if got != 24*60+120-30 {
		t.Errorf("SumOffsets = %d, want %d", got, 24*60+120-30)
	}
	if _, err := SumOffsets("3q"); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("SumOffsets(3q) error = %v, want ErrInvalidUnit", err)
	}
}
