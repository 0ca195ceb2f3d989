package pages

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-revisions/internal/storage"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Schema creates the pages table.
func Schema() storage.SchemaStep {
	return storage.SchemaStep{
		Name: "pages",
		Create: func(ctx context.Context, db bun.IDB, tables storage.Tables) error {
			return storage.CreateTable(ctx, db, (*Page)(nil), tables.Pages)
		},
	}
}

func NewPageRepository(db *bun.DB) repository.Repository[*Page] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Page]{
		NewRecord: func() *Page { return &Page{} },
		GetID: func(p *Page) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Page, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(p *Page) string {
			return p.Slug
		},
	})
}

// BunRepository stores pages in the configured pages table. Every call runs
// on the transaction carried by ctx when there is one, so page updates join
// the publish unit of work.
type BunRepository struct {
	db    *bun.DB
	repo  repository.Repository[*Page]
	table string
}

var _ Repository = (*BunRepository)(nil)

func NewBunRepository(db *bun.DB, tables storage.Tables) *BunRepository {
	return &BunRepository{
		db:    db,
		repo:  NewPageRepository(db),
		table: tables.Resolve().Pages,
	}
}

func (r *BunRepository) conn(ctx context.Context) bun.IDB {
	return storage.IDB(ctx, r.db)
}

func (r *BunRepository) Create(ctx context.Context, page *Page) (*Page, error) {
	created, err := r.repo.CreateTx(ctx, r.conn(ctx), clonePage(page),
		func(q *bun.InsertQuery) *bun.InsertQuery {
			return q.ModelTableExpr("?", bun.Ident(r.table))
		},
	)
	if err != nil {
		if repository.IsDuplicatedKey(err) || storage.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %q", ErrSlugExists, page.Slug)
		}
		return nil, mapRepositoryError(err, page.Slug)
	}
	return created, nil
}

func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Page, error) {
	page, err := r.repo.GetByIDTx(ctx, r.conn(ctx), id.String(), r.selectTable())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return page, nil
}

func (r *BunRepository) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	records, _, err := r.repo.ListTx(ctx, r.conn(ctx),
		r.selectTable(),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.slug = ?", slug)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, slug)
	}
	if len(records) == 0 {
		return nil, &PageNotFoundError{Key: slug}
	}
	return records[0], nil
}

func (r *BunRepository) List(ctx context.Context) ([]*Page, error) {
	records, _, err := r.repo.ListTx(ctx, r.conn(ctx),
		r.selectTable(),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Limit(0).OrderExpr("?TableAlias.slug ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "")
	}
	return records, nil
}

func (r *BunRepository) Update(ctx context.Context, page *Page) (*Page, error) {
	updated, err := r.repo.UpdateTx(ctx, r.conn(ctx), clonePage(page),
		func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.ModelTableExpr("? AS p", bun.Ident(r.table))
		},
		repository.UpdateColumns(
			"title",
			"template",
			"revision",
			"published_version",
			"published_at",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, page.ID.String())
	}
	return updated, nil
}

func (r *BunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	conn := r.conn(ctx)
	if _, err := r.repo.GetByIDTx(ctx, conn, id.String(), r.selectTable()); err != nil {
		return mapRepositoryError(err, id.String())
	}
	err := r.repo.DeleteWhereTx(ctx, conn,
		func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.ModelTableExpr("? AS p", bun.Ident(r.table))
		},
		repository.DeleteByID(id.String()),
	)
	return mapRepositoryError(err, id.String())
}

// selectTable points the query at the configured table under the model alias.
func (r *BunRepository) selectTable() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.ModelTableExpr("? AS p", bun.Ident(r.table))
	}
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) ||
		goerrors.IsCategory(err, repository.CategoryDatabaseExpectedCount) {
		return &PageNotFoundError{Key: key}
	}
	return fmt.Errorf("page repository error: %w", err)
}
