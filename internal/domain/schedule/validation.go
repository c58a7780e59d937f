package schedule

import (
	"errors"
	"strings"

	"github.com/rpggio/cadence/internal/chrono"
	"github.com/rpggio/cadence/internal/domain/event"
)

// Validate checks a schedule definition and reports every offending element.
// The returned error joins one *ValidationError per problem.
func Validate(s Schedule) error {
	var errs []error
	fail := func(ve *ValidationError) { errs = append(errs, ve) }

	if strings.TrimSpace(s.Guid) == "" {
		fail(&ValidationError{Field: "guid", Reason: "is required"})
	}
	if strings.TrimSpace(s.Name) == "" {
		fail(&ValidationError{Field: "name", Reason: "is required"})
	}
	if reason := periodProblem(s.Duration); reason != "" {
		fail(&ValidationError{Field: "duration", Reason: reason})
	}

	bursts := make(map[string]bool, len(s.StudyBursts))
	for _, b := range s.StudyBursts {
		bad := func(field, reason string) {
			fail(&ValidationError{BurstID: b.Identifier, Field: field, Reason: reason})
		}
		if strings.TrimSpace(b.Identifier) == "" || strings.Contains(b.Identifier, ":") {
			bad("identifier", "must be a non-empty key without ':'")
		} else if bursts[b.Identifier] {
			bad("identifier", "is duplicated")
		}
		bursts[b.Identifier] = true

		if _, err := event.Parse(b.OriginEventID); err != nil {
			bad("origin_event_id", "is not a valid event id")
		}
		if b.Occurrences < 1 {
			bad("occurrences", "must be at least 1")
		}
		if reason := dayPeriodProblem(b.Delay); reason != "" {
			bad("delay", reason)
		}
		if reason := dayPeriodProblem(b.Interval); reason != "" {
			bad("interval", reason)
		} else if b.Occurrences > 1 && b.Interval.Days() < 1 {
			bad("interval", "must be at least one day when repeating")
		}
		if b.UpdateType != "" {
			if _, err := event.ParsePolicy(string(b.UpdateType)); err != nil {
				bad("update_type", "is not a known update policy")
			}
		}
	}

	sessions := make(map[string]bool, len(s.Sessions))
	for _, sess := range s.Sessions {
		bad := func(field, reason string) {
			fail(&ValidationError{SessionGuid: sess.Guid, Field: field, Reason: reason})
		}
		if strings.TrimSpace(sess.Guid) == "" {
			bad("guid", "is required")
		} else if sessions[sess.Guid] {
			bad("guid", "is duplicated")
		}
		sessions[sess.Guid] = true

		if strings.TrimSpace(sess.Name) == "" {
			bad("name", "is required")
		}
		if len(sess.StartEventIDs) == 0 && len(sess.StudyBurstIDs) == 0 {
			bad("start_event_ids", "requires at least one start event or study burst")
		}
		for _, id := range sess.StartEventIDs {
			if _, err := event.Parse(id); err != nil {
				bad("start_event_ids", "contains invalid event id "+id)
			}
		}
		for _, id := range sess.StudyBurstIDs {
			if !bursts[id] {
				bad("study_burst_ids", "references unknown study burst "+id)
			}
		}
		if sess.Occurrences < 0 {
			bad("occurrences", "cannot be negative")
		}
		if reason := dayPeriodProblem(sess.Delay); reason != "" {
			bad("delay", reason)
		}
		if reason := dayPeriodProblem(sess.Interval); reason != "" {
			bad("interval", reason)
		} else if sess.Occurrences > 1 && sess.Interval.Days() < 1 {
			bad("interval", "must be at least one day when repeating")
		}
		switch sess.PerformanceOrder {
		case "", OrderSequential, OrderRandomized:
		default:
			bad("performance_order", "must be sequential or randomized")
		}

		if len(sess.TimeWindows) == 0 {
			bad("time_windows", "requires at least one time window")
		}
		windows := make(map[string]bool, len(sess.TimeWindows))
		for _, w := range sess.TimeWindows {
			badWindow := func(field, reason string) {
				fail(&ValidationError{SessionGuid: sess.Guid, WindowGuid: w.Guid, Field: field, Reason: reason})
			}
			if strings.TrimSpace(w.Guid) == "" {
				badWindow("guid", "is required")
			} else if windows[w.Guid] {
				badWindow("guid", "is duplicated")
			}
			windows[w.Guid] = true

			if reason := periodProblem(w.Expiration); reason != "" {
				badWindow("expiration", reason)
			} else if !w.Persistent && w.Expiration.IsZero() {
				badWindow("expiration", "is required unless the window is persistent")
			}
		}
	}

	return errors.Join(errs...)
}

// dayPeriodProblem checks offsets the scheduler counts in calendar days.
func dayPeriodProblem(p chrono.Period) string {
	if reason := periodProblem(p); reason != "" {
		return reason
	}
	if !p.IsWholeDays() {
		return "must be a whole number of days"
	}
	return ""
}

func periodProblem(p chrono.Period) string {
	switch {
	case p.IsNegative():
		return "cannot be negative"
	case p.HasCalendarUnits():
		return "cannot use months or years"
	}
	return ""
}

// WithGuids returns a copy of s where every missing schedule, session and
// window guid is filled from gen.
func WithGuids(s Schedule, gen func() string) Schedule {
	out := s
	if strings.TrimSpace(out.Guid) == "" {
		out.Guid = gen()
	}
	out.Sessions = make([]Session, len(s.Sessions))
	for i, sess := range s.Sessions {
		if strings.TrimSpace(sess.Guid) == "" {
			sess.Guid = gen()
		}
		windows := make([]TimeWindow, len(sess.TimeWindows))
		for j, w := range sess.TimeWindows {
			if strings.TrimSpace(w.Guid) == "" {
				w.Guid = gen()
			}
			windows[j] = w
		}
		sess.TimeWindows = windows
		out.Sessions[i] = sess
	}
	out.StudyBursts = append([]StudyBurst(nil), s.StudyBursts...)
	return out
}
