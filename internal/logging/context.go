package logging

import (
	"context"
	"maps"
)

type fieldsKey struct{}

// ContextWithFields carries fields on ctx so loggers further down the call
// chain pick them up through FromContext. Later keys win.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// ContextFields returns a copy of the fields carried by ctx.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	if fields, ok := ctx.Value(fieldsKey{}).(map[string]any); ok && len(fields) > 0 {
		return maps.Clone(fields)
	}
	return nil
}

// FromContext binds logger to ctx and attaches the fields ctx carries.
func FromContext(ctx context.Context, logger Logger) Logger {
	if logger == nil {
		logger = NoOp()
	}
	if ctx == nil {
		return logger
	}
	return WithFields(logger.WithContext(ctx), ContextFields(ctx))
}
