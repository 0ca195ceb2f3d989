package terms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/goliatone/go-revisions/internal/storage"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func newBunRepository(t *testing.T, name string) *BunRepository {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", "file:"+name+"?mode=memory&cache=shared&_fk=1")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	tables := storage.Tables{I18nPrefix: "test_"}
	if err := storage.Migrate(context.Background(), db, tables, Schema()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewBunRepository(db, tables)
}

func repositories(t *testing.T, name string) map[string]Repository {
	return map[string]Repository{
		"memory": NewMemoryRepository(),
		"bun":    newBunRepository(t, name),
	}
}

func TestUpsertTermAndDefinitionRoundTrip(t *testing.T) {
	for name, repo := range repositories(t, "terms_roundtrip") {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			term, err := repo.UpsertTerm(ctx, "pages_1_5_headline", "Headline for Home")
			if err != nil {
				t.Fatalf("upsert term: %v", err)
			}
			if _, err := repo.UpsertDefinition(ctx, term.ID, "en", json.RawMessage(`"Hello"`)); err != nil {
				t.Fatalf("upsert definition: %v", err)
			}

			again, err := repo.UpsertTerm(ctx, "pages_1_5_headline", "Headline for Start")
			if err != nil {
				t.Fatalf("second upsert: %v", err)
			}
			if again.ID != term.ID {
				t.Fatalf("expected upsert to keep id %s, got %s", term.ID, again.ID)
			}
			if again.Description != "Headline for Start" {
				t.Fatalf("expected description update, got %q", again.Description)
			}

			def, err := repo.UpsertDefinition(ctx, term.ID, "en", json.RawMessage(`"Hej"`))
			if err != nil {
				t.Fatalf("update definition: %v", err)
			}
			if string(def.Content) != `"Hej"` {
				t.Fatalf("expected updated content, got %s", def.Content)
			}

			entry, err := repo.Translate(ctx, "pages_1_5_headline", "en")
			if err != nil {
				t.Fatalf("translate: %v", err)
			}
			if string(entry.Content) != `"Hej"` || entry.Locale != "en" {
				t.Fatalf("unexpected entry %+v", entry)
			}

			if _, err := repo.Translate(ctx, "pages_1_5_headline", "sv"); !errors.Is(err, ErrTermNotFound) {
				t.Fatalf("expected ErrTermNotFound for missing locale, got %v", err)
			}
		})
	}
}

func TestEmptyContentIsStoredAsNull(t *testing.T) {
	for name, repo := range repositories(t, "terms_null") {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			term, _ := repo.UpsertTerm(ctx, "pages_1_1_body", "")
			def, err := repo.UpsertDefinition(ctx, term.ID, "en", nil)
			if err != nil {
				t.Fatalf("upsert definition: %v", err)
			}
			if string(def.Content) != "null" {
				t.Fatalf("expected null content, got %q", def.Content)
			}
		})
	}
}

func TestListByPrefixMatchesExactRevision(t *testing.T) {
	for name, repo := range repositories(t, "terms_prefix") {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, key := range []string{"pages_1_1_title", "pages_1_10_title", "pages_1_1_boxes__0_title", "pagesX1X1Xtitle"} {
				term, err := repo.UpsertTerm(ctx, key, "")
				if err != nil {
					t.Fatalf("upsert %s: %v", key, err)
				}
				if _, err := repo.UpsertDefinition(ctx, term.ID, "en", json.RawMessage(`"v"`)); err != nil {
					t.Fatalf("definition %s: %v", key, err)
				}
			}

			entries, err := repo.ListByPrefix(ctx, "pages_1_1_", "en")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(entries) != 2 {
				t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
			}
			if entries[0].Key != "pages_1_1_boxes__0_title" || entries[1].Key != "pages_1_1_title" {
				t.Fatalf("unexpected keys %s, %s", entries[0].Key, entries[1].Key)
			}

			none, err := repo.ListByPrefix(ctx, "pages_1_1_", "sv")
			if err != nil {
				t.Fatalf("list sv: %v", err)
			}
			if len(none) != 0 {
				t.Fatalf("expected no sv entries, got %d", len(none))
			}
		})
	}
}

func TestDeleteByPrefixRemovesDefinitions(t *testing.T) {
	for name, repo := range repositories(t, "terms_delete") {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, key := range []string{"pages_2_1_title", "pages_2_1_body", "pages_2_2_title", "pages_20_1_title"} {
				term, _ := repo.UpsertTerm(ctx, key, "")
				if _, err := repo.UpsertDefinition(ctx, term.ID, "en", json.RawMessage(`1`)); err != nil {
					t.Fatalf("definition %s: %v", key, err)
				}
			}

			removed, err := repo.DeleteByPrefix(ctx, "pages_2_1_")
			if err != nil {
				t.Fatalf("delete: %v", err)
			}
			if removed != 2 {
				t.Fatalf("expected 2 removed, got %d", removed)
			}
			removed, err = repo.DeleteByPrefix(ctx, "pages_2_1_")
			if err != nil || removed != 0 {
				t.Fatalf("expected idempotent delete, got %d, %v", removed, err)
			}

			remaining, _ := repo.ListTermsByPrefix(ctx, "pages_2")
			if len(remaining) != 2 {
				t.Fatalf("expected 2 remaining terms, got %d", len(remaining))
			}

			if _, err := repo.DeleteKeys(ctx, "pages_2_2_title"); err != nil {
				t.Fatalf("delete keys: %v", err)
			}
			if _, err := repo.GetByKey(ctx, "pages_2_2_title"); !errors.Is(err, ErrTermNotFound) {
				t.Fatalf("expected deleted key to be gone, got %v", err)
			}
			if _, err := repo.Translate(ctx, "pages_20_1_title", "en"); err != nil {
				t.Fatalf("expected other owner to survive, got %v", err)
			}
		})
	}
}

func TestMemoryDeleteDropsDefinitions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	term, _ := repo.UpsertTerm(ctx, "pages_1_1_title", "")
	_, _ = repo.UpsertDefinition(ctx, term.ID, "en", json.RawMessage(`"a"`))
	_, _ = repo.UpsertDefinition(ctx, term.ID, "sv", json.RawMessage(`"b"`))
	if repo.DefinitionCount() != 2 {
		t.Fatalf("expected 2 definitions, got %d", repo.DefinitionCount())
	}
	if _, err := repo.DeleteByPrefix(ctx, "pages_1_"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if repo.DefinitionCount() != 0 {
		t.Fatalf("expected definitions to cascade, got %d", repo.DefinitionCount())
	}
}
