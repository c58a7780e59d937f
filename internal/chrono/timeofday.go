package chrono

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"gopkg.in/yaml.v3"
)

// TimeOfDay is a wall-clock time without a date, written as HH:MM or HH:MM:SS.
type TimeOfDay struct {
	t civil.Time
}

// NewTimeOfDay returns the time of day hour:minute.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay{t: civil.Time{Hour: hour, Minute: minute}}
}

// ParseTimeOfDay parses HH:MM or HH:MM:SS.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeOfDay{}, nil
	}
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	parsed, err := time.Parse(layout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{t: civil.TimeOf(parsed)}, nil
}

// TimeOfDayOf returns the wall-clock time of t in its own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{t: civil.TimeOf(t)}
}

// Compare returns -1, 0 or +1 as t is before, equal to or after u.
func (t TimeOfDay) Compare(u TimeOfDay) int {
	switch {
	case t.t.Before(u.t):
		return -1
	case t.t.After(u.t):
		return 1
	}
	return 0
}

// Civil returns the underlying civil time.
func (t TimeOfDay) Civil() civil.Time {
	return t.t
}

// On returns the instant at this time of day on date d in loc.
func (t TimeOfDay) On(d civil.Date, loc *time.Location) time.Time {
	return civil.DateTime{Date: d, Time: t.t}.In(loc)
}

func (t TimeOfDay) String() string {
	if t.t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.t.Hour, t.t.Minute, t.t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.t.Hour, t.t.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) MarshalYAML() (any, error) {
	return t.String(), nil
}

func (t *TimeOfDay) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("time of day must be a scalar, line %d", node.Line)
	}
	return t.UnmarshalText([]byte(node.Value))
}
