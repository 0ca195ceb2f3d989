package events

import (
	"context"
	"strings"

	"github.com/goliatone/go-revisions/pkg/interfaces"
)

// ActivityChannel is the channel recorded on activity entries.
const ActivityChannel = "revisions"

// ActivityHook records events on a go-users activity sink.
type ActivityHook struct {
	Sink interfaces.ActivitySink
}

var _ Subscriber = ActivityHook{}

func (h ActivityHook) Handle(ctx context.Context, event Event) error {
	if h.Sink == nil || strings.TrimSpace(event.Name) == "" {
		return nil
	}
	return h.Sink.Log(ctx, ActivityRecord(event))
}

// ActivityRecord maps an event onto the go-users activity record.
func ActivityRecord(event Event) interfaces.ActivityRecord {
	data := map[string]any{
		"event": event.Name,
	}
	if event.Subject.Title != "" {
		data["title"] = event.Subject.Title
	}
	if event.Revision > 0 {
		data["revision"] = event.Revision
	}
	if event.Locale != "" {
		data["locale"] = event.Locale
	}
	if len(event.Fields) > 0 {
		data["fields"] = append([]string(nil), event.Fields...)
	}
	if len(event.Changes) > 0 {
		changes := make(map[string]string, len(event.Changes))
		for _, change := range event.Changes {
			changes[change.Field] = change.Path
		}
		data["changes"] = changes
	}
	if len(event.Content) > 0 {
		locales := make([]string, 0, len(event.Content))
		for locale := range event.Content {
			locales = append(locales, locale)
		}
		data["locales"] = sortedStrings(locales)
	}

	return interfaces.ActivityRecord{
		Verb:       activityVerb(event.Name),
		ObjectType: event.Subject.Kind,
		ObjectID:   event.Subject.ID,
		Channel:    ActivityChannel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}
}

func activityVerb(name string) string {
	switch name {
	case RevisionUpdated:
		return "update"
	case RevisionPublished:
		return "publish"
	case RevisionDeleted:
		return "delete"
	default:
		return name
	}
}
