package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-revisions/internal/logging"
	"github.com/goliatone/go-revisions/internal/revisions"
	"github.com/goliatone/go-revisions/pkg/interfaces"
	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

// CreatePageRequest captures the fields needed to create a page. An empty
// slug is derived from the title.
type CreatePageRequest struct {
	Title    string `json:"title"`
	Slug     string `json:"slug,omitempty"`
	Template string `json:"template,omitempty"`
}

// OwnerCleaner removes the revision data of an owner.
type OwnerCleaner interface {
	DeleteOwner(ctx context.Context, ref revisions.Owner) error
}

type ServiceOption func(*Service)

func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCleaner sets the collaborator that cascades page deletes into the
// revision stores.
func WithCleaner(cleaner OwnerCleaner) ServiceOption {
	return func(s *Service) {
		s.cleaner = cleaner
	}
}

// Service manages page records and loads them for the revision engine.
type Service struct {
	repo    Repository
	cleaner OwnerCleaner
	now     func() time.Time
	ids     func() uuid.UUID
	logger  interfaces.Logger
}

var _ revisions.OwnerStore = (*Service)(nil)

func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		ids:    uuid.New,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCleaner wires the delete cascade after construction, for containers
// that build the engine after the page service.
func (s *Service) SetCleaner(cleaner OwnerCleaner) {
	s.cleaner = cleaner
}

func (s *Service) Create(ctx context.Context, req CreatePageRequest) (*Page, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	source := req.Slug
	if strings.TrimSpace(source) == "" {
		source = title
	}
	normalized, err := slug.Normalize(source)
	if err != nil || normalized == "" {
		return nil, ErrSlugRequired
	}

	now := s.now()
	page := &Page{
		ID:        s.ids(),
		Template:  strings.TrimSpace(req.Template),
		Title:     title,
		Slug:      normalized,
		Revision:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.repo.Create(ctx, page)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("pages.created", "page_id", created.ID, "slug", created.Slug)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Page, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) List(ctx context.Context) ([]*Page, error) {
	return s.repo.List(ctx)
}

// Lookup resolves a page by id, falling back to its slug.
func (s *Service) Lookup(ctx context.Context, key string) (*Page, error) {
	if id, err := uuid.Parse(strings.TrimSpace(key)); err == nil {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.GetBySlug(ctx, strings.TrimSpace(key))
}

// Delete removes the revision data of the page and then the page itself.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	page, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.cleaner != nil {
		if err := s.cleaner.DeleteOwner(ctx, page.RevisionOwner()); err != nil {
			return fmt.Errorf("pages: delete revisions of %s: %w", page.ID, err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("pages.deleted", "page_id", id, "slug", page.Slug)
	return nil
}

// Load implements revisions.OwnerStore.
func (s *Service) Load(ctx context.Context, id string) (revisions.Revisionable, error) {
	pageID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, &PageNotFoundError{Key: id}
	}
	page, err := s.repo.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Save implements revisions.OwnerStore by writing the revision columns of
// owner.
func (s *Service) Save(ctx context.Context, owner revisions.Revisionable) error {
	page, ok := owner.(*Page)
	if !ok {
		return fmt.Errorf("pages: cannot save %T", owner)
	}
	page.UpdatedAt = s.now()
	_, err := s.repo.Update(ctx, page)
	return err
}
