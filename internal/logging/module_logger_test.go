package logging

import (
	"context"
	"maps"
	"testing"

	"github.com/goliatone/go-revisions/pkg/interfaces"
)

// captureLogger remembers the fields and contexts bound to it.
type captureLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

var _ interfaces.FieldsLogger = (*captureLogger)(nil)

func (c *captureLogger) Trace(string, ...any) {}
func (c *captureLogger) Debug(string, ...any) {}
func (c *captureLogger) Info(string, ...any)  {}
func (c *captureLogger) Warn(string, ...any)  {}
func (c *captureLogger) Error(string, ...any) {}
func (c *captureLogger) Fatal(string, ...any) {}

func (c *captureLogger) WithFields(fields map[string]any) interfaces.Logger {
	c.fields = append(c.fields, maps.Clone(fields))
	return c
}

func (c *captureLogger) WithContext(ctx context.Context) interfaces.Logger {
	c.contexts = append(c.contexts, ctx)
	return c
}

type namedProvider struct {
	names  []string
	logger interfaces.Logger
}

func (p *namedProvider) GetLogger(name string) interfaces.Logger {
	p.names = append(p.names, name)
	return p.logger
}

func TestModuleLoggersRequestTheirModule(t *testing.T) {
	cases := map[string]func(interfaces.LoggerProvider) interfaces.Logger{
		engineModule:   EngineLogger,
		pagesModule:    PagesLogger,
		eventsModule:   EventsLogger,
		templateModule: TemplatesLogger,
		storageModule:  StorageLogger,
	}
	for module, build := range cases {
		capture := &captureLogger{}
		provider := &namedProvider{logger: capture}
		build(provider)

		if len(provider.names) != 1 || provider.names[0] != module {
			t.Fatalf("%s: requested %v", module, provider.names)
		}
		if len(capture.fields) != 1 || capture.fields[0]["module"] != module {
			t.Fatalf("%s: expected module field, got %v", module, capture.fields)
		}
	}
}

func TestModuleLoggerWithoutProviderDropsEntries(t *testing.T) {
	logger := ModuleLogger(nil, "")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noop logger, got %T", logger)
	}

	provider := &namedProvider{}
	if _, ok := ModuleLogger(provider, "").(noopLogger); !ok {
		t.Fatal("expected noop logger when the provider returns nil")
	}
	if provider.names[0] != rootModule {
		t.Fatalf("expected root module, got %v", provider.names)
	}
}

func TestWithRevisionContextOmitsBlankValues(t *testing.T) {
	capture := &captureLogger{}
	WithRevisionContext(capture, "pages", " ", 0, "sv")

	if len(capture.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(capture.fields))
	}
	want := map[string]any{fieldOwnerType: "pages", fieldLocale: "sv"}
	if !maps.Equal(capture.fields[0], want) {
		t.Fatalf("expected %v, got %v", want, capture.fields[0])
	}

	WithRevisionContext(capture, "", "", 0, "")
	if len(capture.fields) != 1 {
		t.Fatal("expected no fields call when every value is blank")
	}
}

func TestContextFieldsFlowIntoLogger(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"command": "revisions.publish", "owner_id": "1"})
	ctx = ContextWithFields(ctx, map[string]any{"owner_id": "2"})

	fields := ContextFields(ctx)
	if fields["command"] != "revisions.publish" || fields["owner_id"] != "2" {
		t.Fatalf("expected merged fields, got %v", fields)
	}
	fields["command"] = "mutated"
	if ContextFields(ctx)["command"] != "revisions.publish" {
		t.Fatal("expected a copy of the context fields")
	}

	capture := &captureLogger{}
	FromContext(ctx, capture)
	if len(capture.contexts) != 1 || capture.contexts[0] != ctx {
		t.Fatalf("expected logger bound to ctx, got %v", capture.contexts)
	}
	if len(capture.fields) != 1 || capture.fields[0]["owner_id"] != "2" {
		t.Fatalf("expected context fields on logger, got %v", capture.fields)
	}
}

func TestFromContextWithoutFields(t *testing.T) {
	capture := &captureLogger{}
	FromContext(context.Background(), capture)
	if len(capture.fields) != 0 {
		t.Fatalf("expected no fields, got %v", capture.fields)
	}
	if FromContext(context.Background(), nil) == nil {
		t.Fatal("expected noop logger for nil input")
	}
}
