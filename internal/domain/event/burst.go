package event

import (
	"time"

	"github.com/rpggio/cadence/internal/chrono"
)

// BurstConfig describes a study burst as the event model needs it: which
// event fires it and where its synthetic events land.
type BurstConfig struct {
	ID            string
	OriginEventID string
	Delay         chrono.Period
	Interval      chrono.Period
	Occurrences   int
	Policy        Policy
}

// BurstEvents synthesizes the events fired by origin for burst b. Occurrence n
// (1-based) lands at origin + delay + (n-1) * interval.
func BurstEvents(userID string, origin time.Time, b BurstConfig) []ActivityEvent {
	if b.Occurrences < 1 || origin.IsZero() {
		return nil
	}
	policy := b.Policy
	if policy == "" {
		policy = PolicyImmutable
	}

	events := make([]ActivityEvent, 0, b.Occurrences)
	ts := b.Delay.AddTo(origin)
	for n := 1; n <= b.Occurrences; n++ {
		events = append(events, ActivityEvent{
			UserID:    userID,
			EventID:   StudyBurst(b.ID, n).String(),
			Timestamp: ts,
			Policy:    policy,
		})
		ts = b.Interval.AddTo(ts)
	}
	return events
}
