package pages

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists page records. Field content is stored by the
// revision engine, not here.
type Repository interface {
	Create(ctx context.Context, page *Page) (*Page, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	List(ctx context.Context) ([]*Page, error)
	// Update writes the title, template and revision columns of page.
	Update(ctx context.Context, page *Page) (*Page, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
