package templates

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists templates together with their fields.
type Repository interface {
	// Save creates or replaces a template and its field list.
	Save(ctx context.Context, template *Template) (*Template, error)
	GetBySlug(ctx context.Context, slug string) (*Template, error)
	List(ctx context.Context) ([]*Template, error)
	// FieldByKey returns the first field with key, ordered by template slug
	// and sort index. templateSlug narrows the search when not empty.
	FieldByKey(ctx context.Context, key, templateSlug string) (*TemplateField, error)
}

func NewTemplateRepository(db *bun.DB) repository.Repository[*Template] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Template]{
		NewRecord: func() *Template { return &Template{} },
		GetID: func(t *Template) uuid.UUID {
			return t.ID
		},
		SetID: func(t *Template, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(t *Template) string {
			return t.Slug
		},
	})
}

func NewTemplateFieldRepository(db *bun.DB) repository.Repository[*TemplateField] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*TemplateField]{
		NewRecord: func() *TemplateField { return &TemplateField{} },
		GetID: func(f *TemplateField) uuid.UUID {
			return f.ID
		},
		SetID: func(f *TemplateField, id uuid.UUID) {
			f.ID = id
		},
		// Keys are unique per template only; lookups by key go through
		// FieldByKey, which joins the template slug.
		GetIdentifier: func() string {
			return "key"
		},
		GetIdentifierValue: func(f *TemplateField) string {
			return f.Key
		},
	})
}
