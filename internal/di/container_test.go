package di

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	revisionscmd "github.com/goliatone/go-revisions/internal/commands/revisions"
	"github.com/goliatone/go-revisions/internal/events"
	"github.com/goliatone/go-revisions/internal/logging/gologger"
	"github.com/goliatone/go-revisions/internal/pages"
	"github.com/goliatone/go-revisions/internal/revisions"
	"github.com/goliatone/go-revisions/internal/runtimeconfig"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const pageTemplate = `
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

type fakeRedis struct {
	deleted []string
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.deleted = append(f.deleted, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}

func testConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Locales = []runtimeconfig.LocaleConfig{
		{Code: "en", Name: "English", Enabled: true},
		{Code: "sv", Name: "Svenska", Enabled: true},
	}
	cfg.Kinds = map[string]runtimeconfig.KindConfig{
		pages.Kind: {
			DefaultTemplate:  "page",
			CacheKeysToFlush: []string{"pages:{id}"},
			Indexable:        true,
			IndexableKeys:    []string{"headline"},
			TitleKey:         "headline",
		},
	}
	return cfg
}

func newTestDB(t *testing.T, name string) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", "file:"+name+"?mode=memory&cache=shared&_fk=1")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func exerciseContainer(t *testing.T, container *Container, flushed *fakeRedis) {
	t.Helper()
	ctx := context.Background()

	if err := container.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := container.TemplateService().LoadDefinitions(ctx, strings.NewReader(pageTemplate)); err != nil {
		t.Fatalf("load templates: %v", err)
	}

	page, err := container.PageService().Create(ctx, pages.CreatePageRequest{Title: "Home"})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	ref := page.RevisionOwner()

	data, _ := revisions.NewFieldData("headline", "Hello", "order", 5)
	if _, err := container.RevisionService().UpdateContent(ctx, ref, data, "en", 0); err != nil {
		t.Fatalf("update en: %v", err)
	}
	sv, _ := revisions.NewFieldData("headline", "Hej")
	if _, err := container.RevisionService().UpdateContent(ctx, ref, sv, "sv", 0); err != nil {
		t.Fatalf("update sv: %v", err)
	}

	published, err := container.RevisionService().Publish(ctx, ref, 0)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.CurrentRevision() != 2 {
		t.Fatalf("expected draft revision 2, got %d", published.CurrentRevision())
	}
	if state := revisions.StateOf(published); state.Phase != revisions.PhasePublished || state.Revision != 1 {
		t.Fatalf("unexpected state %+v", state)
	}

	content, err := container.RevisionService().GetFieldContent(ctx, ref, 0, "sv")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if content["headline"] != "Hej" {
		t.Fatalf("unexpected sv content %#v", content)
	}

	index, ok := container.Indexer().(*events.MemoryIndex)
	if !ok {
		t.Fatalf("expected memory index, got %T", container.Indexer())
	}
	doc, ok := index.Get(pages.Kind, ref.ID, "en")
	if !ok || doc.Title != "Hello" {
		t.Fatalf("expected indexed english document, got %+v (%v)", doc, ok)
	}

	if len(flushed.deleted) == 0 || flushed.deleted[0] != "pages:"+ref.ID {
		t.Fatalf("expected cache flush for the page, got %v", flushed.deleted)
	}

	if err := container.PageService().Delete(ctx, page.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if index.Len() != 0 {
		t.Fatalf("expected index cleared after delete, got %d documents", index.Len())
	}
}

func TestContainerWiresMemoryStack(t *testing.T) {
	flushed := &fakeRedis{}
	container, err := NewContainer(testConfig(), WithRedis(flushed))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	if container.DB() != nil {
		t.Fatal("expected no database for memory storage")
	}
	exerciseContainer(t, container, flushed)
}

func TestContainerWiresBunStack(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Provider = "bun"
	cfg.Storage.Migrate = true

	flushed := &fakeRedis{}
	container, err := NewContainer(cfg, WithBunDB(newTestDB(t, "di_bun_stack")), WithRedis(flushed))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	exerciseContainer(t, container, flushed)

	enabled, err := container.LocaleRepository().ListEnabled(context.Background())
	if err != nil {
		t.Fatalf("list locales: %v", err)
	}
	if len(enabled) != 2 {
		t.Fatalf("expected seeded locales, got %+v", enabled)
	}
}

func TestContainerBuildsTemplateCache(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Provider = "bun"
	cfg.Storage.CacheTemplates = true

	container, err := NewContainer(cfg, WithBunDB(newTestDB(t, "di_template_cache")))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if container.cacheService == nil || container.keySerializer == nil {
		t.Fatal("expected template cache to be configured")
	}
	if err := container.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
}

func TestContainerRequiresOwnerStores(t *testing.T) {
	cfg := testConfig()
	cfg.Kinds["posts"] = runtimeconfig.KindConfig{DefaultTemplate: "post"}

	if _, err := NewContainer(cfg); !errors.Is(err, ErrOwnerStoreMissing) {
		t.Fatalf("expected ErrOwnerStoreMissing, got %v", err)
	}

	container, err := NewContainer(cfg, WithOwnerStore("posts", pages.NewService(pages.NewMemoryRepository())))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if names := container.Kinds().Names(); len(names) != 2 {
		t.Fatalf("expected two kinds, got %v", names)
	}
}

func TestContainerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Delimiter = "xx"
	if _, err := NewContainer(cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestConfigureLoggerProviderUsesGoLoggerAdapter(t *testing.T) {
	cfg := testConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	provider, ok := container.LoggerProvider().(*gologger.Provider)
	if !ok {
		t.Fatalf("expected go-logger provider, got %T", container.LoggerProvider())
	}
	if logger := provider.GetLogger("revisions.test"); logger == nil {
		t.Fatal("expected logger from go-logger provider, got nil")
	}
}

func TestCommandHandlersUseContainerService(t *testing.T) {
	ctx := context.Background()
	container, err := NewContainer(testConfig(), WithClock(func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if err := container.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := container.TemplateService().LoadDefinitions(ctx, strings.NewReader(pageTemplate)); err != nil {
		t.Fatalf("load templates: %v", err)
	}
	page, err := container.PageService().Create(ctx, pages.CreatePageRequest{Title: "About"})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}

	ref := revisionscmd.OwnerRef{Kind: pages.Kind, OwnerID: page.ID.String()}
	data, _ := revisions.NewFieldData("missing", "value")
	err = container.Handlers().Update.Execute(ctx, revisionscmd.UpdateContentCommand{OwnerRef: ref, Fields: data})
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found category, got %v", err)
	}

	data, _ = revisions.NewFieldData("headline", "About us")
	if err := container.Handlers().Update.Execute(ctx, revisionscmd.UpdateContentCommand{OwnerRef: ref, Fields: data}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := container.Handlers().Publish.Execute(ctx, revisionscmd.PublishRevisionCommand{OwnerRef: ref}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	stored, err := container.PageService().Get(ctx, page.ID)
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	if stored.Revision != 2 || stored.PublishedAt == nil {
		t.Fatalf("unexpected page after publish %+v", stored)
	}
}
