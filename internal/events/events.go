package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event names emitted by the revision engine.
const (
	RevisionUpdated   = "revision.updated"
	RevisionPublished = "revision.published"
	RevisionDeleted   = "revision.deleted"
)

// Subject identifies the owner an event is about.
type Subject struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Change is how one field was stored by an update.
type Change struct {
	Field string `json:"field"`
	Path  string `json:"path"`
	// Identifier is the term key, or the field prefix for repeater leaves.
	Identifier  string              `json:"identifier,omitempty"`
	Content     json.RawMessage     `json:"content,omitempty"`
	Identifiers []map[string]string `json:"identifiers,omitempty"`
}

// Event is a fire-and-forget notification.
//
// Fields lists the written field keys for updates and Changes carries their
// per-field results in the same order. Content holds the republished content
// per locale for publish events. Owner is the in-process owner value the
// engine worked on; it is not serialized.
type Event struct {
	Name       string                    `json:"name"`
	Subject    Subject                   `json:"subject"`
	Revision   int                       `json:"revision,omitempty"`
	Locale     string                    `json:"locale,omitempty"`
	Fields     []string                  `json:"fields,omitempty"`
	Changes    []Change                  `json:"changes,omitempty"`
	Content    map[string]map[string]any `json:"content,omitempty"`
	Owner      any                       `json:"-"`
	OccurredAt time.Time                 `json:"occurred_at"`
}

// Sink receives events. Publish never reports failures to the caller.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// Subscriber reacts to a published event.
type Subscriber interface {
	Handle(ctx context.Context, event Event) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, event Event) error

func (f SubscriberFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Publish(context.Context, Event) {}
