package mcp

import (
	"context"
	"encoding/json"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes a callable tool
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func timestampProp(description string) map[string]any {
	return map[string]any{"type": "string", "format": "date-time", "description": description}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var reportProperties = map[string]any{
	"user_id":          stringProp("Participant identifier"),
	"now":              timestampProp("Evaluate as of this instant (defaults to the current time)"),
	"client_time_zone": stringProp("IANA zone used to place windows on the calendar (defaults to each event's recorded offset)"),
	"show_active": map[string]any{
		"type":        "boolean",
		"description": "Hide windows that are not yet available or not applicable",
	},
	"study_start_event_id": stringProp("Event that week 0 is counted from (defaults to the earliest recorded event)"),
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Events
		{
			Name:        "record_event",
			Description: "Record the timestamp of a participant event. The event's update policy decides whether an existing timestamp may change; recording a study burst origin also records the burst events",
			InputSchema: objectSchema(map[string]any{
				"user_id":          stringProp("Participant identifier"),
				"event_id":         stringProp("Event identifier: enrollment, a system event, or custom:<name> (bare names are treated as custom)"),
				"timestamp":        timestampProp("When the event happened, with its UTC offset"),
				"client_time_zone": stringProp("IANA zone of the participant's device"),
			}, "user_id", "event_id", "timestamp"),
		},
		{
			Name:        "delete_event",
			Description: "Delete a participant event when its update policy allows it",
			InputSchema: objectSchema(map[string]any{
				"user_id":  stringProp("Participant identifier"),
				"event_id": stringProp("Event identifier"),
			}, "user_id", "event_id"),
		},
		{
			Name:        "list_events",
			Description: "List every event recorded for a participant",
			InputSchema: objectSchema(map[string]any{
				"user_id": stringProp("Participant identifier"),
			}, "user_id"),
		},
		{
			Name:        "get_event_history",
			Description: "List accepted event changes for a participant, newest first",
			InputSchema: objectSchema(map[string]any{
				"user_id":  stringProp("Participant identifier"),
				"event_id": stringProp("Only changes to this event"),
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of entries",
				},
				"offset": map[string]any{
					"type":        "integer",
					"description": "Offset for pagination",
				},
			}, "user_id"),
		},

		// Schedules
		{
			Name:        "publish_schedule",
			Description: "Validate a schedule definition, build its timeline and make it the study's current schedule",
			InputSchema: objectSchema(map[string]any{
				"definition": stringProp("Schedule definition as YAML or JSON"),
			}, "definition"),
		},
		{
			Name:        "get_timeline",
			Description: "Get the flattened timeline of the study's published schedule",
			InputSchema: objectSchema(map[string]any{
				"include_schedule": map[string]any{
					"type":        "boolean",
					"description": "Also return the schedule definition",
				},
			}),
		},

		// Adherence
		{
			Name:        "update_adherence_records",
			Description: "Save a participant's progress on session instances",
			InputSchema: objectSchema(map[string]any{
				"user_id": stringProp("Participant identifier"),
				"records": map[string]any{
					"type":        "array",
					"description": "One entry per session instance",
					"items": objectSchema(map[string]any{
						"instance_guid":    stringProp("Session instance guid from the timeline"),
						"started_on":       timestampProp("When the participant started"),
						"finished_on":      timestampProp("When the participant finished"),
						"declined":         map[string]any{"type": "boolean", "description": "The participant declined the session"},
						"client_time_zone": stringProp("IANA zone of the participant's device"),
					}, "instance_guid"),
				},
			}, "user_id", "records"),
		},
		{
			Name:        "list_adherence_records",
			Description: "List a participant's stored adherence records",
			InputSchema: objectSchema(map[string]any{
				"user_id": stringProp("Participant identifier"),
			}, "user_id"),
		},
		{
			Name:        "get_event_stream_adherence",
			Description: "Report a participant's adherence grouped by start event and day",
			InputSchema: objectSchema(reportProperties, "user_id"),
		},
		{
			Name:        "get_study_adherence",
			Description: "Report a participant's adherence over the whole study, week by week, with progression and next activity",
			InputSchema: objectSchema(reportProperties, "user_id"),
		},
	}
}

// registerTools exposes every catalog tool through the handler.
func registerTools(server *sdkmcp.Server, handler *Handler) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := handler.Handle(ctx, getTenantID(ctx), getSessionID(ctx), name, args)
			if err != nil {
				return errorResult(err)
			}
			return textResult(result, false)
		})
	}
}

func textResult(payload any, isError bool) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: isError,
	}, nil
}

// errorResult reports domain failures as tool errors so the model can react.
// Anything unmapped is an internal failure.
func errorResult(err error) (*sdkmcp.CallToolResult, error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return textResult(apiErr, true)
	}
	return nil, err
}
