// Package timezone resolves free-form timezone tokens ("est", "tokyo", "JST",
// "Europe/Berlin") to canonical IANA locations.
//
// Resolution order (first match wins):
//  1. colloquial aliases (edt/est/et, mdt/mst/mt, pdt/pst/pt, jp/jt/jst)
//  2. the abbreviation table built at construction time
//  3. a "/"-separated segment of a canonical zone name
//  4. a substring of a canonical zone name
//  5. a canonical zone identifier accepted by time.LoadLocation
//
// All lookups are case-insensitive. The IANA database is embedded so results
// do not depend on the host's zoneinfo files.
package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// ErrInvalidTimezone is returned when a token matches no known zone.
var ErrInvalidTimezone = errors.New("invalid timezone")

// aliases maps colloquial tokens to zone names. An empty target means the
// zone is looked up in the abbreviation table under jstAbbreviation.
var aliases = map[string]string{
	"edt": "America/New_York",
	"est": "America/New_York",
	"et":  "America/New_York",
	"mdt": "America/North_Dakota/Center",
	"mst": "America/North_Dakota/Center",
	"mt":  "America/North_Dakota/Center",
	"pdt": "America/Los_Angeles",
	"pst": "America/Los_Angeles",
	"pt":  "America/Los_Angeles",
	"jp":  "",
	"jt":  "",
	"jst": "",
}

const (
	jstAbbreviation = "JST"
	jstFallback     = "Asia/Tokyo"
)

// Resolver maps tokens to locations. It is immutable once constructed and safe
// for concurrent use.
type Resolver struct {
	names  []string
	lower  []string
	abbrev AbbreviationTable
}

// NewResolver builds a Resolver over names (nil means Names) with an
// abbreviation table computed at now.
func NewResolver(names []string, now time.Time) *Resolver {
	if names == nil {
		names = Names
	}
	lower := make([]string, len(names))
	for i, n := range names {
		lower[i] = strings.ToLower(n)
	}
	return &Resolver{
		names:  names,
		lower:  lower,
		abbrev: NewAbbreviationTable(names, now),
	}
}

// Abbreviations returns the table used for step 2 of resolution.
func (r *Resolver) Abbreviations() AbbreviationTable { return r.abbrev }

// Resolve maps token to a canonical location.
func (r *Resolver) Resolve(token string) (*time.Location, error) {
	tok := strings.ToLower(strings.TrimSpace(token))
	if tok == "" || tok == "local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, token)
	}

	if target, ok := aliases[tok]; ok {
		if target != "" {
			return load(target, token)
		}
		if loc, ok := r.abbrev.Lookup(jstAbbreviation); ok {
			return loc, nil
		}
		return load(jstFallback, token)
	}

	if loc, ok := r.abbrev.Lookup(tok); ok {
		return loc, nil
	}

	for i, name := range r.lower {
		for _, seg := range strings.Split(name, "/") {
			if seg == tok {
				return load(r.names[i], token)
			}
		}
	}

	for i, name := range r.lower {
		if strings.Contains(name, tok) {
			return load(r.names[i], token)
		}
	}

	return load(strings.TrimSpace(token), token)
}

func load(name, token string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, token)
	}
	return loc, nil
}

// AbbreviationTable maps an uppercase zone abbreviation ("EDT", "JST", "+09")
// to the zone that carried it when the table was built.
type AbbreviationTable map[string]*time.Location

// NewAbbreviationTable localizes now in every zone of names and records the
// abbreviation in effect. When zones share an abbreviation the one later in
// names wins, so the result is deterministic for a given names order and now.
// Zones that fail to load are skipped.
func NewAbbreviationTable(names []string, now time.Time) AbbreviationTable {
	t := make(AbbreviationTable, len(names))
	for _, name := range names {
		loc, err := time.LoadLocation(name)
		if err != nil {
			continue
		}
		abbr, _ := now.In(loc).Zone()
		if abbr == "" {
			continue
		}
		t[strings.ToUpper(abbr)] = loc
	}
	return t
}

// Lookup finds the zone recorded for abbr, ignoring case.
func (t AbbreviationTable) Lookup(abbr string) (*time.Location, bool) {
	loc, ok := t[strings.ToUpper(abbr)]
	return loc, ok
}
