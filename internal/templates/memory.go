package templates

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps templates in process.
type MemoryRepository struct {
	mu        sync.RWMutex
	templates map[string]*Template
	now       func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		templates: make(map[string]*Template),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepository) Save(_ context.Context, template *Template) (*Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stored := cloneTemplate(template)
	if existing, ok := m.templates[stored.Slug]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	for _, field := range stored.Fields {
		field.TemplateID = stored.ID
		field.CreatedAt = stored.CreatedAt
		field.UpdatedAt = now
	}
	sortFields(stored.Fields)
	m.templates[stored.Slug] = stored
	return cloneTemplate(stored), nil
}

func (m *MemoryRepository) GetBySlug(_ context.Context, slug string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	template, ok := m.templates[slug]
	if !ok {
		return nil, &NotFoundError{Slug: slug}
	}
	return cloneTemplate(template), nil
}

func (m *MemoryRepository) List(_ context.Context) ([]*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Template, 0, len(m.templates))
	for _, template := range m.templates {
		out = append(out, cloneTemplate(template))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *MemoryRepository) FieldByKey(_ context.Context, key, templateSlug string) (*TemplateField, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slugs := make([]string, 0, len(m.templates))
	for slug := range m.templates {
		if templateSlug == "" || slug == templateSlug {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	for _, slug := range slugs {
		for _, field := range m.templates[slug].Fields {
			if field.Key == key {
				return cloneField(field), nil
			}
		}
	}
	return nil, &FieldKeyNotFoundError{Key: key, Template: templateSlug}
}
