// Package chrono holds the calendar types shared by scheduling and adherence:
// ISO-8601 periods, times of day and date helpers.
package chrono

import (
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
)

// In converts t into loc when loc is set, leaving it untouched otherwise.
func In(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}

// DateOf returns the calendar date of t as seen in loc (or in t's own offset when loc is nil).
func DateOf(t time.Time, loc *time.Location) civil.Date {
	return civil.DateOf(In(t, loc))
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod is the remainder matching FloorDiv; always in [0, b) for positive b.
func FloorMod(a, b int) int {
	return a - FloorDiv(a, b)*b
}

// LoadLocation resolves an IANA zone name. An empty name yields nil.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, nil
	}
	return time.LoadLocation(name)
}
