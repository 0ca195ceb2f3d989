package templates

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/goliatone/go-revisions/internal/storage"
	"github.com/uptrace/bun"
)

// Schema creates the template and template field tables.
func Schema() storage.SchemaStep {
	return storage.SchemaStep{
		Name: "templates",
		Create: func(ctx context.Context, db bun.IDB, _ storage.Tables) error {
			if err := storage.CreateTable(ctx, db, (*Template)(nil), ""); err != nil {
				return err
			}
			return storage.CreateTable(ctx, db, (*TemplateField)(nil), "")
		},
	}
}

// BunRepository persists templates through go-repository-bun. Field lookups
// go through the transaction on the context when there is one.
type BunRepository struct {
	db        *bun.DB
	templates repository.Repository[*Template]
	fields    repository.Repository[*TemplateField]
	now       func() time.Time
}

var _ Repository = (*BunRepository)(nil)

func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache wraps the template repositories with
// go-repository-cache when both cache arguments are provided.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunRepository {
	return &BunRepository{
		db:        db,
		templates: wrapWithCache(NewTemplateRepository(db), cacheService, keySerializer),
		fields:    wrapWithCache(NewTemplateFieldRepository(db), cacheService, keySerializer),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *BunRepository) Save(ctx context.Context, template *Template) (*Template, error) {
	now := r.now()
	record := cloneTemplate(template)
	record.UpdatedAt = now

	existing, err := r.templates.GetByIdentifier(ctx, record.Slug)
	switch {
	case err == nil:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		if _, err := r.templates.Update(ctx, record); err != nil {
			return nil, storage.MapError(err, "template")
		}
	case goerrors.IsCategory(err, repository.CategoryDatabaseNotFound):
		record.CreatedAt = now
		if _, err := r.templates.Create(ctx, record); err != nil {
			return nil, storage.MapError(err, "template")
		}
	default:
		return nil, storage.MapError(err, "template")
	}

	current, err := r.listFields(ctx, record)
	if err != nil {
		return nil, err
	}
	for _, field := range current {
		if err := r.fields.Delete(ctx, &TemplateField{ID: field.ID}); err != nil {
			return nil, storage.MapError(err, "template_field")
		}
	}
	for _, field := range record.Fields {
		field.TemplateID = record.ID
		field.CreatedAt = now
		field.UpdatedAt = now
		if _, err := r.fields.Create(ctx, field); err != nil {
			return nil, storage.MapError(err, "template_field")
		}
	}
	return r.GetBySlug(ctx, record.Slug)
}

func (r *BunRepository) GetBySlug(ctx context.Context, slug string) (*Template, error) {
	template, err := r.templates.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, slug)
	}
	fields, err := r.listFields(ctx, template)
	if err != nil {
		return nil, err
	}
	out := cloneTemplate(template)
	out.Fields = fields
	return out, nil
}

func (r *BunRepository) List(ctx context.Context) ([]*Template, error) {
	records, _, err := r.templates.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.slug ASC")
		}),
	)
	if err != nil {
		return nil, storage.MapError(err, "template")
	}
	out := make([]*Template, 0, len(records))
	for _, record := range records {
		fields, err := r.listFields(ctx, record)
		if err != nil {
			return nil, err
		}
		template := cloneTemplate(record)
		template.Fields = fields
		out = append(out, template)
	}
	return out, nil
}

func (r *BunRepository) FieldByKey(ctx context.Context, key, templateSlug string) (*TemplateField, error) {
	query := storage.IDB(ctx, r.db).NewSelect().
		Model((*TemplateField)(nil)).
		Join("JOIN revision_templates AS rt ON rt.id = rtf.template_id").
		Where("rtf.key = ?", key)
	if templateSlug != "" {
		query = query.Where("rt.slug = ?", templateSlug)
	}

	var fields []*TemplateField
	err := query.OrderExpr("rt.slug ASC, rtf.sort_index ASC").Limit(1).Scan(ctx, &fields)
	if err != nil {
		return nil, storage.MapError(err, "template_field")
	}
	if len(fields) == 0 {
		return nil, &FieldKeyNotFoundError{Key: key, Template: templateSlug}
	}
	return fields[0], nil
}

func (r *BunRepository) listFields(ctx context.Context, template *Template) ([]*TemplateField, error) {
	fields, _, err := r.fields.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.template_id = ?", template.ID).
				OrderExpr("?TableAlias.sort_index ASC")
		}),
	)
	if err != nil {
		return nil, storage.MapError(err, "template_field")
	}
	return fields, nil
}

func mapRepositoryError(err error, slug string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Slug: slug}
	}
	return storage.MapError(err, "template")
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
