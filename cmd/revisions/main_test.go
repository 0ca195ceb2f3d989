package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	revisions "github.com/goliatone/go-revisions"
)

const cliTemplates = `
templates:
  - slug: page
    name: Page
    fields:
      - key: headline
        type: text
        translated: true
      - key: order
        type: number
`

func useTestModule(t *testing.T) {
	t.Helper()
	cfg := revisions.DefaultConfig()
	cfg.Locales = []revisions.LocaleConfig{
		{Code: "en", Name: "English", Enabled: true},
		{Code: "sv", Name: "Svenska", Enabled: true},
	}
	module, err := revisions.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}

	original := moduleBuilder
	moduleBuilder = func(context.Context, revisions.Config) (*revisions.Module, func() error, error) {
		return module, func() error { return nil }, nil
	}
	t.Cleanup(func() {
		moduleBuilder = original
		_ = module.Close()
	})
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := run(context.Background(), append([]string{"-env", ""}, args...), &out); err != nil {
		t.Fatalf("run %v: %v", args, err)
	}
	return out.String()
}

func TestRunWritesPublishesAndShows(t *testing.T) {
	useTestModule(t)

	file := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(file, []byte(cliTemplates), 0o600); err != nil {
		t.Fatalf("write templates: %v", err)
	}

	if out := runCLI(t, "seed", "-file", file); !strings.Contains(out, "template page (2 fields)") {
		t.Fatalf("unexpected seed output %q", out)
	}
	if out := runCLI(t, "create-page", "-title", "Home", "-slug", "home"); !strings.Contains(out, `"slug": "home"`) {
		t.Fatalf("unexpected create output %q", out)
	}
	if out := runCLI(t, "write", "-owner", "home", "-data", `{"headline":"Hello","order":3}`); !strings.Contains(out, "wrote 2 fields") {
		t.Fatalf("unexpected write output %q", out)
	}
	runCLI(t, "write", "-owner", "home", "-locale", "sv", "-data", `{"headline":"Hej"}`)

	if out := runCLI(t, "publish", "-owner", "home"); !strings.Contains(out, "published revision 1") {
		t.Fatalf("unexpected publish output %q", out)
	}

	out := runCLI(t, "show", "-owner", "home", "-locale", "sv", "-revision", "1")
	if !strings.Contains(out, `"headline": "Hej"`) {
		t.Fatalf("expected swedish headline, got %q", out)
	}
	if !strings.Contains(out, `"phase": "published"`) {
		t.Fatalf("expected published phase, got %q", out)
	}

	runCLI(t, "meta", "-owner", "home", "-key", "order", "-value", "7")
	runCLI(t, "delete", "-owner", "home")
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	useTestModule(t)

	var out bytes.Buffer
	err := run(context.Background(), []string{"-env", "", "rollback"}, &out)
	if err == nil || !strings.Contains(err.Error(), `unknown command "rollback"`) {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestRunRequiresCommand(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-env", ""}, &out); err == nil {
		t.Fatal("expected usage error")
	}
}

func TestRunRequiresOwner(t *testing.T) {
	useTestModule(t)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"-env", "", "publish"}, &out); err == nil {
		t.Fatal("expected missing owner error")
	}
}
