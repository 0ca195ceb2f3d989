package revisions

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-revisions/internal/events"
	"github.com/goliatone/go-revisions/internal/locales"
	"github.com/goliatone/go-revisions/internal/meta"
	"github.com/goliatone/go-revisions/internal/storage"
	"github.com/goliatone/go-revisions/internal/templates"
	"github.com/goliatone/go-revisions/internal/terms"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPage struct {
	ID          string
	Title       string
	Revision    int
	Published   *int
	PublishedAt time.Time
}

func (p *testPage) RevisionOwner() Owner  { return Owner{Kind: "pages", ID: p.ID} }
func (p *testPage) RevisionTitle() string { return p.Title }
func (p *testPage) CurrentRevision() int  { return p.Revision }
func (p *testPage) PublishedRevision() (int, bool) {
	if p.Published == nil {
		return 0, false
	}
	return *p.Published, true
}

func (p *testPage) MarkPublished(revision int, at time.Time) {
	published := revision
	p.Published = &published
	p.Revision = revision + 1
	p.PublishedAt = at
}

type pageStore struct {
	mu    sync.Mutex
	pages map[string]testPage
	saves int
}

func newPageStore(pages ...*testPage) *pageStore {
	s := &pageStore{pages: make(map[string]testPage)}
	for _, page := range pages {
		s.pages[page.ID] = *page
	}
	return s
}

func (s *pageStore) Load(_ context.Context, id string) (Revisionable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[id]
	if !ok {
		return nil, fmt.Errorf("page %s not found", id)
	}
	return &page, nil
}

func (s *pageStore) Save(_ context.Context, owner Revisionable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := owner.(*testPage)
	s.pages[page.ID] = *page
	s.saves++
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Publish(_ context.Context, event events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) named(name string) []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.Event
	for _, event := range s.events {
		if event.Name == name {
			out = append(out, event)
		}
	}
	return out
}

type fixture struct {
	engine    *Engine
	service   *Service
	terms     terms.Repository
	meta      meta.Repository
	templates templates.Service
	locales   locales.Repository
	store     *pageStore
	sink      *recordingSink
	page      *testPage
}

func pageDefinition() templates.RegisterTemplateRequest {
	return templates.RegisterTemplateRequest{
		Slug: "page",
		Name: "Page",
		Fields: []templates.FieldDefinition{
			{Key: "headline", Name: "Headline", Type: "text", Translated: true},
			{Key: "body", Name: "Body", Type: "text", Translated: true},
			{Key: "boxes", Name: "Boxes", Type: "repeater", Translated: true, Repeater: true},
			{Key: "links", Name: "Links", Type: "repeater", Repeater: true},
			{Key: "order", Name: "Order", Type: "number", Options: map[string]any{
				"schema": map[string]any{"type": []any{"integer", "null"}},
			}},
			{Key: "image", Name: "Image", Type: "image"},
			{Key: "gallery", Name: "Gallery", Type: "image", Translated: true},
		},
	}
}

type backend struct {
	terms     terms.Repository
	meta      meta.Repository
	templates templates.Repository
	locales   locales.Repository
	tx        storage.Transactor
}

func memoryBackend(*testing.T, string) backend {
	return backend{
		terms:     terms.NewMemoryRepository(),
		meta:      meta.NewMemoryRepository(),
		templates: templates.NewMemoryRepository(),
		locales:   locales.NewMemoryRepository(),
		tx:        storage.NoopTransactor{},
	}
}

func bunBackend(t *testing.T, name string) backend {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", "file:"+name+"?mode=memory&cache=shared&_fk=1")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	tables := storage.DefaultTables()
	err = storage.Migrate(context.Background(), db, tables,
		terms.Schema(), meta.Schema(), templates.Schema(), locales.Schema())
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return backend{
		terms:     terms.NewBunRepository(db, tables),
		meta:      meta.NewBunRepository(db, tables),
		templates: templates.NewBunRepository(db),
		locales:   locales.NewBunRepository(db, tables),
		tx:        storage.NewTransactor(db),
	}
}

var backends = map[string]func(*testing.T, string) backend{
	"memory": memoryBackend,
	"bun":    bunBackend,
}

func newFixture(t *testing.T, b backend, opts Options) *fixture {
	t.Helper()
	ctx := context.Background()

	templateService := templates.NewService(b.templates)
	if _, err := templateService.RegisterTemplate(ctx, pageDefinition()); err != nil {
		t.Fatalf("register template: %v", err)
	}
	for _, code := range []string{"en", "sv"} {
		if _, err := b.locales.Upsert(ctx, locales.Locale{Code: code, Enabled: true}); err != nil {
			t.Fatalf("upsert locale: %v", err)
		}
	}

	page := &testPage{ID: "1", Title: "Home", Revision: 1}
	store := newPageStore(page)
	if opts.DefaultTemplate == "" {
		opts.DefaultTemplate = "page"
	}
	kinds, err := NewKinds(Kind{Name: "pages", Options: opts, Store: store})
	if err != nil {
		t.Fatalf("kinds: %v", err)
	}

	sink := &recordingSink{}
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	engine, err := NewEngine(Dependencies{
		Terms:     b.terms,
		Meta:      b.meta,
		Templates: templateService,
		Locales:   b.locales,
		Kinds:     kinds,
	},
		WithSink(sink),
		WithTransactor(b.tx),
		WithClock(func() time.Time { return clock }),
	)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return &fixture{
		engine:    engine,
		service:   NewService(engine),
		terms:     b.terms,
		meta:      b.meta,
		templates: templateService,
		locales:   b.locales,
		store:     store,
		sink:      sink,
		page:      page,
	}
}

func forEachBackend(t *testing.T, name string, opts Options, fn func(t *testing.T, f *fixture)) {
	for backendName, build := range backends {
		t.Run(backendName, func(t *testing.T) {
			fn(t, newFixture(t, build(t, name+"_"+backendName), opts))
		})
	}
}

func mustFieldData(t *testing.T, pairs ...any) FieldData {
	t.Helper()
	data, err := NewFieldData(pairs...)
	if err != nil {
		t.Fatalf("field data: %v", err)
	}
	return data
}
