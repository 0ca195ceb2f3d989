package pages

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-revisions/internal/storage"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func newBunRepository(t *testing.T, name string) *BunRepository {
	t.Helper()
	repo, _ := newBunRepositoryWithTables(t, name, storage.DefaultTables())
	return repo
}

func newBunRepositoryWithTables(t *testing.T, name string, tables storage.Tables) (*BunRepository, *bun.DB) {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", "file:"+name+"?mode=memory&cache=shared&_fk=1")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	if err := storage.Migrate(context.Background(), db, tables, Schema()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewBunRepository(db, tables), db
}

func repositories(t *testing.T) map[string]Repository {
	return map[string]Repository{
		"memory": NewMemoryRepository(),
		"bun":    newBunRepository(t, "pages_repository_"+t.Name()),
	}
}

func TestRepositoryLifecycle(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			page := &Page{ID: uuid.New(), Title: "Home", Slug: "home", Revision: 1, CreatedAt: now, UpdatedAt: now}

			created, err := repo.Create(ctx, page)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if created.Slug != "home" || created.Revision != 1 {
				t.Fatalf("unexpected page %+v", created)
			}
			if _, err := repo.Create(ctx, &Page{ID: uuid.New(), Title: "Other", Slug: "home", Revision: 1}); !errors.Is(err, ErrSlugExists) {
				t.Fatalf("expected ErrSlugExists, got %v", err)
			}

			created.MarkPublished(1, now)
			created.Title = "Home page"
			updated, err := repo.Update(ctx, created)
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if updated.Revision != 2 || updated.Title != "Home page" {
				t.Fatalf("unexpected update %+v", updated)
			}
			if published, ok := updated.PublishedRevision(); !ok || published != 1 {
				t.Fatalf("expected published revision 1, got %d (%v)", published, ok)
			}

			bySlug, err := repo.GetBySlug(ctx, "home")
			if err != nil || bySlug.ID != page.ID {
				t.Fatalf("get by slug: %+v (%v)", bySlug, err)
			}
			if _, err := repo.Create(ctx, &Page{ID: uuid.New(), Title: "About", Slug: "about", Revision: 1, CreatedAt: now, UpdatedAt: now}); err != nil {
				t.Fatalf("create about: %v", err)
			}
			list, err := repo.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 2 || list[0].Slug != "about" {
				t.Fatalf("unexpected list %+v", list)
			}

			if err := repo.Delete(ctx, page.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := repo.GetByID(ctx, page.ID); !errors.Is(err, ErrPageNotFound) {
				t.Fatalf("expected ErrPageNotFound, got %v", err)
			}
			if err := repo.Delete(ctx, page.ID); !errors.Is(err, ErrPageNotFound) {
				t.Fatalf("expected ErrPageNotFound on second delete, got %v", err)
			}
		})
	}
}

func TestBunRepositoryJoinsContextTransaction(t *testing.T) {
	tables := storage.DefaultTables()
	tables.Pages = "site_pages"
	repo, db := newBunRepositoryWithTables(t, "pages_repository_tx", tables)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	page, err := repo.Create(ctx, &Page{Title: "Home", Slug: "home", Revision: 1, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if page.ID == uuid.Nil {
		t.Fatal("expected an id to be assigned")
	}

	rollback := errors.New("rollback")
	err = storage.NewTransactor(db).RunInTx(ctx, func(ctx context.Context) error {
		draft := clonePage(page)
		draft.MarkPublished(1, now)
		if _, err := repo.Update(ctx, draft); err != nil {
			return err
		}
		inside, err := repo.GetByID(ctx, page.ID)
		if err != nil {
			return err
		}
		if inside.Revision != 2 {
			t.Errorf("expected the update visible inside the transaction, got revision %d", inside.Revision)
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("expected rollback error, got %v", err)
	}

	stored, err := repo.GetBySlug(ctx, "home")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if stored.Revision != 1 || stored.PublishedVersion != nil {
		t.Fatalf("expected the rolled back update discarded, got %+v", stored)
	}

	missing := &Page{ID: uuid.New(), Title: "Ghost", Slug: "ghost", Revision: 1}
	if _, err := repo.Update(ctx, missing); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound on update, got %v", err)
	}
}
