package interfaces

import (
	"context"

	usertypes "github.com/goliatone/go-users/pkg/types"
)

// ActivityRecord is the go-users activity record revision events are logged as.
type ActivityRecord = usertypes.ActivityRecord

// ActivitySink stores activity records. go-users activity sinks satisfy it.
type ActivitySink interface {
	Log(ctx context.Context, record ActivityRecord) error
}

// ActivitySinkFunc adapts a function to ActivitySink.
type ActivitySinkFunc func(ctx context.Context, record ActivityRecord) error

func (f ActivitySinkFunc) Log(ctx context.Context, record ActivityRecord) error {
	if f == nil {
		return nil
	}
	return f(ctx, record)
}
