package terms

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-revisions/internal/identity"
	"github.com/google/uuid"
)

// MemoryRepository keeps terms in process. Used by tests and the CLI dry runs.
type MemoryRepository struct {
	mu          sync.RWMutex
	terms       map[string]*Term
	definitions map[uuid.UUID]map[string]*Definition
	now         func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		terms:       make(map[string]*Term),
		definitions: make(map[uuid.UUID]map[string]*Definition),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepository) UpsertTerm(_ context.Context, key, description string) (*Term, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.terms[key]; ok {
		existing.Description = description
		existing.UpdatedAt = now
		return cloneTerm(existing), nil
	}
	term := &Term{
		ID:          identity.TermUUID(key),
		Key:         key,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.terms[key] = term
	return cloneTerm(term), nil
}

func (m *MemoryRepository) UpsertDefinition(_ context.Context, termID uuid.UUID, locale string, content json.RawMessage) (*Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	byLocale, ok := m.definitions[termID]
	if !ok {
		byLocale = make(map[string]*Definition)
		m.definitions[termID] = byLocale
	}
	if existing, ok := byLocale[locale]; ok {
		existing.Content = normalizeContent(content)
		existing.UpdatedAt = now
		return cloneDefinition(existing), nil
	}
	def := &Definition{
		ID:        identity.DefinitionUUID(termID, locale),
		TermID:    termID,
		Locale:    locale,
		Content:   normalizeContent(content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	byLocale[locale] = def
	return cloneDefinition(def), nil
}

func (m *MemoryRepository) GetByKey(_ context.Context, key string) (*Term, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	term, ok := m.terms[key]
	if !ok {
		return nil, &NotFoundError{Key: key}
	}
	return cloneTerm(term), nil
}

func (m *MemoryRepository) Translate(_ context.Context, key, locale string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	term, ok := m.terms[key]
	if !ok {
		return nil, &NotFoundError{Key: key, Locale: locale}
	}
	def, ok := m.definitions[term.ID][locale]
	if !ok {
		return nil, &NotFoundError{Key: key, Locale: locale}
	}
	entry := toEntry(term, def)
	return &entry, nil
}

func (m *MemoryRepository) ListByPrefix(_ context.Context, prefix, locale string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Entry
	for key, term := range m.terms {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		def, ok := m.definitions[term.ID][locale]
		if !ok {
			continue
		}
		out = append(out, toEntry(term, def))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryRepository) ListTermsByPrefix(_ context.Context, prefix string) ([]*Term, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Term
	for key, term := range m.terms {
		if strings.HasPrefix(key, prefix) {
			out = append(out, cloneTerm(term))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryRepository) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, term := range m.terms {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		delete(m.definitions, term.ID)
		delete(m.terms, key)
		removed++
	}
	return removed, nil
}

func (m *MemoryRepository) DeleteKeys(_ context.Context, keys ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, key := range keys {
		term, ok := m.terms[key]
		if !ok {
			continue
		}
		delete(m.definitions, term.ID)
		delete(m.terms, key)
		removed++
	}
	return removed, nil
}

// DefinitionCount reports the number of stored definitions.
func (m *MemoryRepository) DefinitionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, byLocale := range m.definitions {
		total += len(byLocale)
	}
	return total
}

func toEntry(term *Term, def *Definition) Entry {
	return Entry{
		TermID:      term.ID,
		Key:         term.Key,
		Description: term.Description,
		Locale:      def.Locale,
		Content:     append(json.RawMessage(nil), def.Content...),
	}
}
