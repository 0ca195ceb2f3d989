package templates

import (
	"context"
	"fmt"
	"io"
	"maps"
	"strings"
	"time"

	"github.com/goliatone/go-revisions/internal/identity"
	"github.com/goliatone/go-revisions/internal/logging"
	"github.com/goliatone/go-revisions/pkg/interfaces"
	"github.com/goliatone/go-slug"
)

// Service exposes template registration and field lookups.
type Service interface {
	RegisterTemplate(ctx context.Context, req RegisterTemplateRequest) (*Template, error)
	GetTemplate(ctx context.Context, slug string) (*Template, error)
	ListTemplates(ctx context.Context) ([]*Template, error)
	Fields(ctx context.Context, templateSlug string) ([]*TemplateField, error)
	FieldByKey(ctx context.Context, key, templateSlug string) (*TemplateField, error)
	ValidateValue(field *TemplateField, value any) error
	LoadDefinitions(ctx context.Context, r io.Reader) ([]*Template, error)
}

// RegisterTemplateRequest describes a template and its ordered fields.
type RegisterTemplateRequest struct {
	Slug   string            `yaml:"slug" json:"slug"`
	Name   string            `yaml:"name" json:"name"`
	Fields []FieldDefinition `yaml:"fields" json:"fields"`
}

// FieldDefinition describes one field of a template. Sort order follows the
// position in RegisterTemplateRequest.Fields.
type FieldDefinition struct {
	Key        string         `yaml:"key" json:"key"`
	Name       string         `yaml:"name" json:"name"`
	Type       string         `yaml:"type" json:"type"`
	Translated bool           `yaml:"translated" json:"translated"`
	Repeater   bool           `yaml:"repeater" json:"repeater"`
	Options    map[string]any `yaml:"options" json:"options,omitempty"`
}

// ServiceOption configures the template service.
type ServiceOption func(*service)

func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	repo    Repository
	schemas *schemaCache
	now     func() time.Time
	logger  interfaces.Logger
}

func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{
		repo:    repo,
		schemas: newSchemaCache(),
		now:     time.Now,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) RegisterTemplate(ctx context.Context, req RegisterTemplateRequest) (*Template, error) {
	normalized, err := slug.Normalize(req.Slug)
	if err != nil || strings.TrimSpace(normalized) == "" {
		return nil, ErrTemplateSlugRequired
	}

	templateID := identity.TemplateUUID(normalized)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = normalized
	}
	template := &Template{
		ID:   templateID,
		Slug: normalized,
		Name: name,
	}

	seen := make(map[string]struct{}, len(req.Fields))
	for index, def := range req.Fields {
		key := strings.TrimSpace(def.Key)
		if key == "" {
			return nil, fmt.Errorf("%w: field %d", ErrFieldKeyRequired, index)
		}
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFieldKey, key)
		}
		seen[key] = struct{}{}

		field := &TemplateField{
			ID:         identity.TemplateFieldUUID(templateID, key),
			TemplateID: templateID,
			Key:        key,
			Name:       strings.TrimSpace(def.Name),
			Type:       strings.TrimSpace(def.Type),
			Translated: def.Translated,
			Repeater:   def.Repeater,
			SortIndex:  index,
			Options:    maps.Clone(def.Options),
		}
		if field.Type == "" {
			field.Type = "text"
		}
		if schema := field.Schema(); schema != nil {
			if _, err := s.schemas.get(schema); err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
		}
		template.Fields = append(template.Fields, field)
	}

	stored, err := s.repo.Save(ctx, template)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("templates.registered", "slug", stored.Slug, "fields", len(stored.Fields))
	return stored, nil
}

func (s *service) GetTemplate(ctx context.Context, slug string) (*Template, error) {
	return s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
}

func (s *service) ListTemplates(ctx context.Context) ([]*Template, error) {
	return s.repo.List(ctx)
}

func (s *service) Fields(ctx context.Context, templateSlug string) ([]*TemplateField, error) {
	template, err := s.repo.GetBySlug(ctx, strings.TrimSpace(templateSlug))
	if err != nil {
		return nil, err
	}
	return template.Fields, nil
}

// FieldByKey resolves a field by key. An empty templateSlug searches every
// template.
func (s *service) FieldByKey(ctx context.Context, key, templateSlug string) (*TemplateField, error) {
	key = strings.TrimSpace(key)
	templateSlug = strings.TrimSpace(templateSlug)
	if key == "" {
		return nil, &FieldKeyNotFoundError{Key: key, Template: templateSlug}
	}
	return s.repo.FieldByKey(ctx, key, templateSlug)
}

// ValidateValue checks value against the JSON schema in field options.
// Fields without a schema accept any value.
func (s *service) ValidateValue(field *TemplateField, value any) error {
	if field == nil {
		return nil
	}
	return s.schemas.validate(field, value)
}

// LoadDefinitions registers every template in a YAML definition file.
func (s *service) LoadDefinitions(ctx context.Context, r io.Reader) ([]*Template, error) {
	file, err := decodeDefinitions(r)
	if err != nil {
		return nil, err
	}
	out := make([]*Template, 0, len(file.Templates))
	for _, req := range file.Templates {
		stored, err := s.RegisterTemplate(ctx, req)
		if err != nil {
			return out, fmt.Errorf("templates: register %q: %w", req.Slug, err)
		}
		out = append(out, stored)
	}
	return out, nil
}
