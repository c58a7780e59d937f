package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `cadence schedules study sessions relative to participant events and reports adherence.

Core concepts:
- Event: one timestamp per participant and event id (enrollment, system events, custom:<name>, study_burst:<id>:<NN>).
- Schedule: sessions with time windows, repeating from start events or study bursts.
- Timeline: the schedule flattened into session instance rows, relative to their start events.
- Adherence record: a participant's progress on one session instance.

Typical workflow:
1) publish_schedule with a YAML or JSON definition.
2) record_event as participant events happen (enrollment first).
3) update_adherence_records as sessions are started, finished or declined.
4) get_event_stream_adherence or get_study_adherence to see where the participant stands.

Docs:
- cadence://docs/index
- cadence://docs/schedules
- cadence://docs/events
- cadence://docs/adherence
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "cadence://docs/index",
		Name:        "docs_index",
		Title:       "cadence docs index",
		Description: "Entry point: which tool to call and which doc to read.",
		Content: `# cadence: Agent Docs Index

## Quick start

1. ` + "`publish_schedule`" + ` to define the study's sessions.
2. ` + "`record_event`" + ` for each participant event, starting with ` + "`enrollment`" + `.
3. ` + "`get_timeline`" + ` to look up session instance guids.
4. ` + "`update_adherence_records`" + ` as the participant works.
5. ` + "`get_study_adherence`" + ` for the week-by-week picture.

## Docs (read on demand)

- ` + "`cadence://docs/schedules`" + ` - schedule definition format and validation rules.
- ` + "`cadence://docs/events`" + ` - event ids, update policies and study bursts.
- ` + "`cadence://docs/adherence`" + ` - window states and how percentages are computed.
`,
	},
	{
		URI:         "cadence://docs/schedules",
		Name:        "docs_schedules",
		Title:       "Schedule definitions",
		Description: "Fields of a schedule definition, period syntax and validation rules.",
		Content: `# Schedule definitions

A schedule is YAML or JSON:

    guid: sched-1            # optional, generated when missing
    name: Daily diary
    duration: P12W           # optional; rows starting later are dropped
    study_bursts:
      - identifier: checkin
        origin_event_id: enrollment
        interval: P7D
        occurrences: 4
    sessions:
      - name: Diary
        symbol: D
        start_event_ids: [enrollment]
        interval: P1D
        occurrences: 14
        time_windows:
          - start_time: "08:00"
            expiration: PT12H

## Rules

- Periods are ISO-8601 (P1D, P2W, PT30M). Years and months are rejected.
- A session needs at least one start event or study burst, and at least one window.
- A window needs an expiration unless it is persistent.
- Session and burst delays and intervals must be whole days (P1D, P2W, PT48H).
- Repeating sessions and bursts need an interval of at least one day.
- Validation reports every problem at once with the session, window or burst it concerns.
`,
	},
	{
		URI:         "cadence://docs/events",
		Name:        "docs_events",
		Title:       "Events and update policies",
		Description: "Event id forms, update policies and study burst generation.",
		Content: `# Events and update policies

## Event ids

- ` + "`enrollment`" + `, ` + "`timeline_retrieved`" + `, ` + "`install_link_sent`" + ` and other system events.
- ` + "`custom:<name>`" + ` for study-defined events. Bare names are treated as custom.
- ` + "`study_burst:<id>:<NN>`" + ` is generated, never recorded directly.

## Update policies

- IMMUTABLE: the first timestamp sticks; deletes are refused.
- MUTABLE: any change and deletes are accepted.
- FUTURE_ONLY: only a later timestamp is accepted; deletes are refused.

A refused write returns ` + "`UPDATE_REJECTED`" + ` with the policy and reason.

## Study bursts

Recording a burst's origin event also records one event per burst occurrence, offset by the burst delay plus the interval.
`,
	},
	{
		URI:         "cadence://docs/adherence",
		Name:        "docs_adherence",
		Title:       "Adherence states",
		Description: "Window states, selection of start events and adherence percentages.",
		Content: `# Adherence

## Window states

- not_yet_available: the window has not opened.
- unstarted: open, nothing recorded.
- started: open, started but not finished.
- completed / declined: counted as compliant.
- abandoned: started and the window closed.
- expired: closed with nothing recorded.
- not_applicable: the start event has not happened.

## Start event selection

A session with several start events runs from the earliest one that has happened. Rows for the other start events are not applicable and hidden.

## Percentages

Compliant windows over scheduled windows, rounded down. Not applicable windows never count; with ` + "`show_active`" + ` windows that have not opened are left out. No scheduled windows means 100.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
