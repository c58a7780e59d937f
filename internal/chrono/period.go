package chrono

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sosodev/duration"
	"gopkg.in/yaml.v3"
)

const day = 24 * time.Hour

// Period is an ISO-8601 duration such as P1D, P2W or PT30M.
// The zero value is an empty period.
type Period struct {
	raw string
	d   *duration.Duration
}

// ParsePeriod parses an ISO-8601 duration. An empty string yields the zero Period.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, nil
	}
	d, err := duration.Parse(s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return Period{raw: s, d: d}, nil
}

// MustPeriod is like ParsePeriod but panics on malformed input.
func MustPeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// IsZero reports whether the period is empty or spans no time at all.
func (p Period) IsZero() bool {
	return p.d == nil || p.Duration() == 0
}

// IsNegative reports whether the period points backwards in time.
func (p Period) IsNegative() bool {
	return p.d != nil && p.d.Negative
}

// HasCalendarUnits reports whether the period uses years or months, which have no fixed length.
func (p Period) HasCalendarUnits() bool {
	return p.d != nil && (p.d.Years != 0 || p.d.Months != 0)
}

// Duration returns the period as an absolute duration.
func (p Period) Duration() time.Duration {
	if p.d == nil {
		return 0
	}
	return p.d.ToTimeDuration()
}

// Days returns the number of whole days in the period.
func (p Period) Days() int {
	return int(p.Duration() / day)
}

// IsWholeDays reports whether the period is a whole number of days.
func (p Period) IsWholeDays() bool {
	return p.Duration()%day == 0
}

// CeilDays returns the number of days the period touches, rounding partial days up.
func (p Period) CeilDays() int {
	total := p.Duration()
	if total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(day)))
}

// AddTo adds the period to t. Whole days are added on the calendar so wall-clock
// time is preserved across offset changes; the remainder is added as elapsed time.
func (p Period) AddTo(t time.Time) time.Time {
	if p.d == nil {
		return t
	}
	sign := 1
	if p.d.Negative {
		sign = -1
	}
	t = t.AddDate(sign*int(p.d.Years), sign*int(p.d.Months), 0)

	rest := (&duration.Duration{
		Weeks:   p.d.Weeks,
		Days:    p.d.Days,
		Hours:   p.d.Hours,
		Minutes: p.d.Minutes,
		Seconds: p.d.Seconds,
	}).ToTimeDuration()
	days := int(rest / day)
	t = t.AddDate(0, 0, sign*days)
	return t.Add(time.Duration(sign) * (rest - time.Duration(days)*day))
}

// AddTimes adds the period to t n times.
func (p Period) AddTimes(t time.Time, n int) time.Time {
	for i := 0; i < n; i++ {
		t = p.AddTo(t)
	}
	return t
}

func (p Period) String() string {
	return p.raw
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.raw), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Period) MarshalYAML() (any, error) {
	return p.raw, nil
}

func (p *Period) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("period must be a scalar, line %d", node.Line)
	}
	return p.UnmarshalText([]byte(node.Value))
}
