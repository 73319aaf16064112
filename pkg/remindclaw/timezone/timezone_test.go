package timezone

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var buildTime = time.Date(2020, time.April, 13, 14, 0, 0, 0, time.UTC)

func TestResolve(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, buildTime)

	tests := []struct {
		token string
		want  string
	}{
		// Aliases
		{"edt", "America/New_York"},
		{"EST", "America/New_York"},
		{" et ", "America/New_York"},
		{"mdt", "America/North_Dakota/Center"},
		{"MT", "America/North_Dakota/Center"},
		{"pst", "America/Los_Angeles"},
		{"Pt", "America/Los_Angeles"},

		// Path segments
		{"tokyo", "Asia/Tokyo"},
		{"Tokyo", "Asia/Tokyo"},
		{"new_york", "America/New_York"},
		{"berlin", "Europe/Berlin"},

		// Substrings
		{"ndjam", "Africa/Ndjamena"},
		{"europe/berlin", "Europe/Berlin"},
		{"Europe/Berlin", "Europe/Berlin"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			t.Parallel()
			loc, err := r.Resolve(tt.token)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.token, err)
			}
			if loc.String() != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.token, loc.String(), tt.want)
			}
		})
	}
}

func TestResolveJapaneseAliasesAgree(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, buildTime)

	jst, err := r.Resolve("jst")
	if err != nil {
		t.Fatalf("Resolve(jst): %v", err)
	}
	for _, tok := range []string{"jp", "jt", "JST", "Jp"} {
		loc, err := r.Resolve(tok)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tok, err)
		}
		if loc.String() != jst.String() {
			t.Errorf("Resolve(%q) = %q, want %q", tok, loc.String(), jst.String())
		}
	}

	abbr, offset := buildTime.In(jst).Zone()
	if abbr != "JST" || offset != 9*3600 {
		t.Errorf("jst zone = %s%+d, want JST+32400", abbr, offset)
	}
}

func TestResolveAbbreviation(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, buildTime)

	for _, abbr := range []string{"CEST", "cest", "BST", "AEST"} {
		loc, err := r.Resolve(abbr)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", abbr, err)
		}
		got, _ := buildTime.In(loc).Zone()
		if got != strings.ToUpper(abbr) {
			t.Errorf("Resolve(%q) = %s which is %s at build time", abbr, loc, got)
		}
	}
}

func TestResolveCanonicalOutsideList(t *testing.T) {
	t.Parallel()

	r := NewResolver([]string{"Asia/Tokyo"}, buildTime)

	loc, err := r.Resolve("Europe/Paris")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.String() != "Europe/Paris" {
		t.Errorf("got %q, want Europe/Paris", loc.String())
	}
}

func TestResolveInvalid(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, buildTime)

	for _, tok := range []string{"", "   ", "local", "Local", "nowhere-land", "xyzzy"} {
		_, err := r.Resolve(tok)
		if !errors.Is(err, ErrInvalidTimezone) {
			t.Errorf("Resolve(%q) error = %v, want ErrInvalidTimezone", tok, err)
		}
	}
}

func TestAbbreviationTableLastZoneWins(t *testing.T) {
	t.Parallel()

	table := NewAbbreviationTable([]string{"Asia/Tokyo", "Japan"}, buildTime)
	loc, ok := table.Lookup("jst")
	if !ok {
		t.Fatal("JST missing from table")
	}
	if loc.String() != "Japan" {
		t.Errorf("JST = %q, want Japan", loc.String())
	}

	again := NewAbbreviationTable([]string{"Asia/Tokyo", "Japan"}, buildTime)
	if again["JST"].String() != loc.String() {
		t.Error("table construction is not deterministic")
	}
}

func TestAbbreviationTableDependsOnBuildTime(t *testing.T) {
	t.Parallel()

	names := []string{"America/New_York"}
	summer := NewAbbreviationTable(names, time.Date(2020, time.July, 1, 0, 0, 0, 0, time.UTC))
	winter := NewAbbreviationTable(names, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))

	if _, ok := summer.Lookup("EDT"); !ok {
		t.Error("summer table should contain EDT")
	}
	if _, ok := winter.Lookup("EST"); !ok {
		t.Error("winter table should contain EST")
	}
	if _, ok := winter.Lookup("EDT"); ok {
		t.Error("winter table should not contain EDT")
	}
}

func TestAbbreviationTableSkipsUnknownZones(t *testing.T) {
	t.Parallel()

	table := NewAbbreviationTable([]string{"Not/AZone", "UTC"}, buildTime)
	if len(table) != 1 {
		t.Errorf("len(table) = %d, want 1", len(table))
	}
}
