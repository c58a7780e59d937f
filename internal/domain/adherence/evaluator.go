package adherence

import (
	"time"

	"github.com/rpggio/cadence/internal/chrono"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/timeline"
)

// Evaluate assigns exactly one state to every row of in.Metadata, in order.
// Missing events and orphan records never fail evaluation.
func Evaluate(in Input) []Evaluation {
	timestamps := event.Timestamps(in.Events)
	records := make(map[string]*Record, len(in.Records))
	for i := range in.Records {
		records[in.Records[i].InstanceGuid] = &in.Records[i]
	}
	selected := selectStartEvents(in.Metadata, timestamps)

	out := make([]Evaluation, 0, len(in.Metadata))
	for _, row := range in.Metadata {
		ev := Evaluation{Row: row, Selected: true}
		if !row.IsBurst() {
			if chosen, ok := selected[row.SessionGuid]; ok && chosen != row.StartEventID {
				ev.Selected = false
				ev.State = StateNotApplicable
				out = append(out, ev)
				continue
			}
		}

		ts, ok := timestamps[row.StartEventID]
		if !ok {
			ev.State = StateNotApplicable
			out = append(out, ev)
			continue
		}
		ev.EventTimestamp = &ts
		placeWindow(&ev, ts, in.Location)
		ev.Record = records[row.SessionInstanceGuid]
		ev.State = state(ev, in.Now)
		out = append(out, ev)
	}
	return out
}

// selectStartEvents picks, per session, the earliest fired of its direct
// start events. Sessions with no fired start event are absent.
func selectStartEvents(rows []timeline.Metadata, timestamps map[string]time.Time) map[string]string {
	chosen := make(map[string]string)
	earliest := make(map[string]time.Time)
	for _, row := range rows {
		if row.IsBurst() {
			continue
		}
		ts, ok := timestamps[row.StartEventID]
		if !ok {
			continue
		}
		if cur, seen := earliest[row.SessionGuid]; seen && !ts.Before(cur) {
			continue
		}
		earliest[row.SessionGuid] = ts
		chosen[row.SessionGuid] = row.StartEventID
	}
	return chosen
}

func placeWindow(ev *Evaluation, ts time.Time, loc *time.Location) {
	if loc == nil {
		loc = ts.Location()
	}
	startDate := chrono.DateOf(ts, loc).AddDays(ev.Row.RelativeStartDay)
	start := ev.Row.WindowStartTime.On(startDate, loc)
	ev.Start = &start
	ev.StartDate = &startDate

	if ev.Row.WindowPersistent {
		return
	}
	end := ev.Row.WindowExpiration.AddTo(start)
	endDate := chrono.DateOf(end, loc)
	ev.End = &end
	ev.EndDate = &endDate
}

func state(ev Evaluation, now time.Time) State {
	if now.Before(*ev.Start) {
		return StateNotYetAvailable
	}
	// The window end is closed: at exactly End the window is over.
	over := ev.End != nil && !now.Before(*ev.End)

	rec := ev.Record
	switch {
	case rec != nil && rec.Declined:
		return StateDeclined
	case rec != nil && rec.FinishedOn != nil:
		return StateCompleted
	case rec != nil && rec.StartedOn != nil && over:
		return StateAbandoned
	case rec != nil && rec.StartedOn != nil:
		return StateStarted
	case over:
		return StateExpired
	}
	return StateUnstarted
}
