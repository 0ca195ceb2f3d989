package logging

import (
	"maps"

	"github.com/goliatone/go-revisions/pkg/interfaces"
)

type Logger = interfaces.Logger

// WithFields returns logger with fields attached. Loggers that cannot carry
// fields are returned unchanged.
func WithFields(logger Logger, fields map[string]any) Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	withFields, ok := logger.(interfaces.FieldsLogger)
	if !ok {
		return logger
	}
	return withFields.WithFields(maps.Clone(fields))
}
