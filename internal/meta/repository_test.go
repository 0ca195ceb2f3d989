package meta

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

	tables := storage.Tables{Meta: "page_meta"}
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

var page = Owner{Type: "pages", ID: "1"}

func TestUpsertKeepsOneRowPerCompoundKey(t *testing.T) {
	for name, repo := range repositories(t, "meta_upsert") {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first, err := repo.Upsert(ctx, page, 1, "image", json.RawMessage(`[1,2]`))
			if err != nil {
				t.Fatalf("upsert: %v", err)
			}
			second, err := repo.Upsert(ctx, page, 1, "image", json.RawMessage(`[3]`))
			if err != nil {
				t.Fatalf("second upsert: %v", err)
			}
			if first.ID != second.ID {
				t.Fatalf("expected same row, got %s and %s", first.ID, second.ID)
			}
			if string(second.Value) != `[3]` {
				t.Fatalf("expected updated value, got %s", second.Value)
			}

			rows, err := repo.List(ctx, page, 1)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(rows) != 1 {
				t.Fatalf("expected 1 row, got %d", len(rows))
			}
		})
	}
}

func TestNilValueIsStoredAsNull(t *testing.T) {
	for name, repo := range repositories(t, "meta_null") {
		t.Run(name, func(t *testing.T) {
			stored, err := repo.Upsert(context.Background(), page, 1, "hero", nil)
			if err != nil {
				t.Fatalf("upsert: %v", err)
			}
			if string(stored.Value) != "null" {
				t.Fatalf("expected null, got %s", stored.Value)
			}
		})
	}
}

func TestDeleteThroughAndOwner(t *testing.T) {
	for name, repo := range repositories(t, "meta_delete") {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			other := Owner{Type: "posts", ID: "1"}
			for rev := 1; rev <= 3; rev++ {
				if _, err := repo.Upsert(ctx, page, rev, "order", json.RawMessage(`[1]`)); err != nil {
					t.Fatalf("upsert: %v", err)
				}
			}
			if _, err := repo.Upsert(ctx, other, 1, "order", json.RawMessage(`[1]`)); err != nil {
				t.Fatalf("upsert other: %v", err)
			}

			removed, err := repo.DeleteThrough(ctx, page, 2)
			if err != nil {
				t.Fatalf("delete through: %v", err)
			}
			if removed != 2 {
				t.Fatalf("expected 2 removed, got %d", removed)
			}
			if removed, _ := repo.DeleteThrough(ctx, page, 2); removed != 0 {
				t.Fatalf("expected idempotent delete, removed %d", removed)
			}
			if _, err := repo.Get(ctx, page, 3, "order"); err != nil {
				t.Fatalf("expected revision 3 to survive: %v", err)
			}

			if _, err := repo.DeleteOwner(ctx, page); err != nil {
				t.Fatalf("delete owner: %v", err)
			}
			if _, err := repo.Get(ctx, page, 3, "order"); !errors.Is(err, ErrMetaNotFound) {
				t.Fatalf("expected ErrMetaNotFound, got %v", err)
			}
			if _, err := repo.Get(ctx, other, 1, "order"); err != nil {
				t.Fatalf("expected other owner to survive: %v", err)
			}
		})
	}
}
