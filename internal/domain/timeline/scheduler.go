package timeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/schedule"
)

var instanceNamespace = uuid.MustParse("8f1f7a3e-2c55-4b8e-9d7a-64a0f2c1b3d9")

// InstanceGuid derives the guid of a session instance from what makes it unique.
func InstanceGuid(sessionGuid, windowGuid, startEventID string, occurrence int) string {
	name := strings.Join([]string{sessionGuid, windowGuid, startEventID, strconv.Itoa(occurrence)}, "|")
	return uuid.NewSHA1(instanceNamespace, []byte(name)).String()
}

// trigger is one event a session's occurrences are scheduled from.
type trigger struct {
	eventID  string
	burstID  string
	burstNum int
	origin   string
	// offset is the trigger's own distance in days from the burst origin,
	// used only to clip against the schedule duration.
	offset int
}

// Build flattens a schedule into timeline rows. Rows are ordered by session,
// then time window, then trigger event, then occurrence; building an
// unchanged schedule twice yields identical rows and guids.
func Build(s schedule.Schedule) (*Timeline, error) {
	if err := schedule.Validate(s); err != nil {
		return nil, err
	}

	limit := -1
	if !s.Duration.IsZero() {
		limit = s.Duration.Days()
	}

	tl := &Timeline{ScheduleGuid: s.Guid, Metadata: []Metadata{}, StreamStartEventIDs: []string{}}
	streams := make(map[string]bool)

	for _, sess := range s.Sessions {
		triggers, err := sessionTriggers(s, sess)
		if err != nil {
			return nil, err
		}
		occurrences := sess.Occurrences
		if occurrences < 1 {
			occurrences = 1
		}

		for _, w := range sess.TimeWindows {
			for _, tr := range triggers {
				for n := 1; n <= occurrences; n++ {
					start := sess.Delay.Days() + (n-1)*sess.Interval.Days()
					if limit >= 0 && tr.offset+start >= limit {
						break
					}
					row := Metadata{
						SessionInstanceGuid: InstanceGuid(sess.Guid, w.Guid, tr.eventID, n),
						ScheduleGuid:        s.Guid,
						SessionGuid:         sess.Guid,
						SessionName:         sess.Name,
						SessionSymbol:       sess.Symbol,
						TimeWindowGuid:      w.Guid,
						StartEventID:        tr.eventID,
						StudyBurstID:        tr.burstID,
						StudyBurstNum:       tr.burstNum,
						OriginEventID:       tr.origin,
						Occurrence:          n,
						RelativeStartDay:    start,
						WindowStartTime:     w.StartTime,
						WindowExpiration:    w.Expiration,
						WindowPersistent:    w.Persistent,
					}
					if !w.Persistent {
						end := start + w.Expiration.CeilDays()
						row.RelativeEndDay = &end
					}
					tl.Metadata = append(tl.Metadata, row)

					if !streams[tr.eventID] {
						streams[tr.eventID] = true
						tl.StreamStartEventIDs = append(tl.StreamStartEventIDs, tr.eventID)
					}
				}
			}
		}
	}
	return tl, nil
}

func sessionTriggers(s schedule.Schedule, sess schedule.Session) ([]trigger, error) {
	var triggers []trigger
	seen := make(map[string]bool)
	for _, raw := range sess.StartEventIDs {
		id, err := event.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", sess.Guid, err)
		}
		key := id.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		triggers = append(triggers, trigger{eventID: key})
	}

	for _, burstID := range sess.StudyBurstIDs {
		b, ok := s.Burst(burstID)
		if !ok {
			return nil, fmt.Errorf("%w: session %s references unknown study burst %s", schedule.ErrInvalidSchedule, sess.Guid, burstID)
		}
		origin, err := event.Parse(b.OriginEventID)
		if err != nil {
			return nil, fmt.Errorf("study burst %s: %w", b.Identifier, err)
		}
		for n := 1; n <= b.Occurrences; n++ {
			key := event.StudyBurst(b.Identifier, n).String()
			if seen[key] {
				continue
			}
			seen[key] = true
			triggers = append(triggers, trigger{
				eventID:  key,
				burstID:  b.Identifier,
				burstNum: n,
				origin:   origin.String(),
				offset:   b.Delay.Days() + (n-1)*b.Interval.Days(),
			})
		}
	}
	return triggers, nil
}
