package agent

import (
	"context"
	"time"

	"github.com/lmangall/jot/plugin/calendar"
	"github.com/lmangall/jot/store"
)

// CalendarTools builds the calendar tool pair from a user's active calendar
// integration. Merged into the registry only for users who connected one.
func CalendarTools(integration *store.Integration) []Tool {
	client := calendar.NewClient(integration.BaseURL, integration.APIKey)
	return []Tool{
		{
			Action:      "create_calendar_event",
			Description: "Create an event in the user's connected calendar.",
			Schema: objectSchema(map[string]any{
				"title":   stringProp("Event title"),
				"startAt": stringProp("Start time in RFC 3339 format"),
				"endAt":   stringProp("End time in RFC 3339 format. Omit for a default one hour duration."),
				"notes":   stringProp("Optional event description"),
			}, "title", "startAt"),
			Execute: createCalendarEvent(client),
		},
		{
			Action:      "list_calendar_events",
			Description: "List the user's calendar events in a time range.",
			Schema: objectSchema(map[string]any{
				"from": stringProp("Range start in RFC 3339 format"),
				"to":   stringProp("Range end in RFC 3339 format"),
			}, "from", "to"),
			Execute: listCalendarEvents(client),
		},
	}
}

func createCalendarEvent(client *calendar.Client) Executor {
	return func(ctx context.Context, _ int32, input map[string]any) ToolResult {
		const action = "create_calendar_event"
		startAt, _ := input["startAt"].(string)
		start, err := time.Parse(time.RFC3339, startAt)
		if err != nil {
			return Fail(action, "startAt must be RFC 3339, got %q", startAt)
		}
		endAt, _ := input["endAt"].(string)
		if endAt == "" {
			endAt = start.Add(time.Hour).Format(time.RFC3339)
		} else if _, err := time.Parse(time.RFC3339, endAt); err != nil {
			return Fail(action, "endAt must be RFC 3339, got %q", endAt)
		}
		title, _ := input["title"].(string)
		notes, _ := input["notes"].(string)

		created, err := client.CreateEvent(ctx, &calendar.Event{
			Title:   title,
			StartAt: start.Format(time.RFC3339),
			EndAt:   endAt,
			Notes:   notes,
		})
		if err != nil {
			return Fail(action, "create event: %v", err)
		}
		return Succeed(action, map[string]any{
			"eventId": created.ID,
			"title":   created.Title,
			"startAt": created.StartAt,
		})
	}
}

func listCalendarEvents(client *calendar.Client) Executor {
	return func(ctx context.Context, _ int32, input map[string]any) ToolResult {
		const action = "list_calendar_events"
		from, _ := input["from"].(string)
		to, _ := input["to"].(string)
		for name, v := range map[string]string{"from": from, "to": to} {
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				return Fail(action, "%s must be RFC 3339, got %q", name, v)
			}
		}
		events, err := client.ListEvents(ctx, from, to)
		if err != nil {
			return Fail(action, "list events: %v", err)
		}
		out := make([]map[string]any, 0, len(events))
		for _, event := range events {
			out = append(out, map[string]any{
				"eventId": event.ID,
				"title":   event.Title,
				"startAt": event.StartAt,
				"endAt":   event.EndAt,
			})
		}
		return Succeed(action, map[string]any{"events": out})
	}
}
