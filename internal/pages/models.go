package pages

import (
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-revisions/internal/revisions"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Kind is the owner kind pages register under.
const Kind = "pages"

var (
	ErrPageNotFound  = errors.New("pages: page not found")
	ErrTitleRequired = errors.New("pages: title is required")
	ErrSlugRequired  = errors.New("pages: slug is required")
	ErrSlugExists    = errors.New("pages: slug already exists")
)

// PageNotFoundError identifies the page that could not be found.
type PageNotFoundError struct {
	Key string
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("pages: page %q not found", e.Key)
}

func (e *PageNotFoundError) Unwrap() error { return ErrPageNotFound }

// Page is a content record whose field data lives in revisions.
//
// Revision is the next writable draft. PublishedVersion is the last
// revision promoted to live, nil until the first publish.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID               uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Template         string     `bun:"template" json:"template,omitempty"`
	Title            string     `bun:"title,notnull" json:"title"`
	Slug             string     `bun:"slug,notnull,unique" json:"slug"`
	Revision         int        `bun:"revision,notnull" json:"revision"`
	PublishedVersion *int       `bun:"published_version" json:"published_version,omitempty"`
	PublishedAt      *time.Time `bun:"published_at" json:"published_at,omitempty"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

var (
	_ revisions.Revisionable = (*Page)(nil)
	_ revisions.Templated    = (*Page)(nil)
)

func (p *Page) RevisionOwner() revisions.Owner {
	return revisions.Owner{Kind: Kind, ID: p.ID.String()}
}

func (p *Page) RevisionTitle() string    { return p.Title }
func (p *Page) RevisionTemplate() string { return p.Template }
func (p *Page) CurrentRevision() int     { return p.Revision }

func (p *Page) PublishedRevision() (int, bool) {
	if p.PublishedVersion == nil {
		return 0, false
	}
	return *p.PublishedVersion, true
}

// MarkPublished records revision as live and moves the draft to the next
// revision.
func (p *Page) MarkPublished(revision int, at time.Time) {
	published := revision
	publishedAt := at
	p.PublishedVersion = &published
	p.PublishedAt = &publishedAt
	p.Revision = revision + 1
}

func clonePage(src *Page) *Page {
	if src == nil {
		return nil
	}
	out := *src
	if src.PublishedVersion != nil {
		version := *src.PublishedVersion
		out.PublishedVersion = &version
	}
	if src.PublishedAt != nil {
		at := *src.PublishedAt
		out.PublishedAt = &at
	}
	return &out
}
