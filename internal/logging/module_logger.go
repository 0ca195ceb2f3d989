package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-revisions/pkg/interfaces"
)

const (
	rootModule     = "revisions"
	engineModule   = "revisions.engine"
	pagesModule    = "revisions.pages"
	eventsModule   = "revisions.events"
	templateModule = "revisions.templates"
	storageModule  = "revisions.storage"
)

const (
	fieldOwnerType = "owner_type"
	fieldOwnerID   = "owner_id"
	fieldRevision  = "revision"
	fieldLocale    = "locale"
)

// ModuleLogger returns a logger scoped to module. A no-op logger is used when
// provider is nil or hands back nil. The module name is attached as a field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// EngineLogger is used by the revision engine.
func EngineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, engineModule)
}

// PagesLogger is used by the page service.
func PagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pagesModule)
}

// EventsLogger is used by the dispatcher and its subscribers.
func EventsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, eventsModule)
}

func TemplatesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, templateModule)
}

func StorageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storageModule)
}

// WithRevisionContext adds owner, revision and locale fields. Empty values
// and non-positive revisions are skipped.
func WithRevisionContext(logger interfaces.Logger, ownerType, ownerID string, revision int, locale string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(ownerType); trimmed != "" {
		fields[fieldOwnerType] = trimmed
	}
	if trimmed := strings.TrimSpace(ownerID); trimmed != "" {
		fields[fieldOwnerID] = trimmed
	}
	if revision > 0 {
		fields[fieldRevision] = revision
	}
	if trimmed := strings.TrimSpace(locale); trimmed != "" {
		fields[fieldLocale] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
