// Package backends provides the SQL backends behind the reminder store.
package backends

import (
	"strconv"
	"strings"
)

// Dialect captures what differs between the supported SQL engines: bind
// placeholders, locking and the versioned schema.
type Dialect struct {
	// Name identifies the dialect in logs.
	Name string

	// NumberedParams selects $1, $2, ... placeholders instead of ?.
	NumberedParams bool

	// RowLocks reports whether SELECT ... FOR UPDATE is available.
	RowLocks bool

	// VersionQuery returns the server version string.
	VersionQuery string

	versionTable string
	migrations   []string
}

// Rebind rewrites ? placeholders for dialects that number their parameters.
// Queries must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if !d.NumberedParams {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// Latest is the schema version reached by applying every migration.
func (d Dialect) Latest() int { return len(d.migrations) }
