package locales

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-revisions/internal/identity"
)

// MemoryRepository keeps locales in process.
type MemoryRepository struct {
	mu      sync.RWMutex
	locales map[string]*Locale
	now     func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		locales: make(map[string]*Locale),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepository) Upsert(_ context.Context, locale Locale) (*Locale, error) {
	code := NormalizeCode(locale.Code)
	if code == "" {
		return nil, ErrLocaleCodeRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stored := locale
	stored.Code = code
	stored.ID = identity.LocaleUUID(code)
	stored.UpdatedAt = now
	if existing, ok := m.locales[code]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	if stored.Name == "" {
		stored.Name = code
	}
	m.locales[code] = &stored
	copied := stored
	return &copied, nil
}

func (m *MemoryRepository) Get(_ context.Context, code string) (*Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code = NormalizeCode(code)
	locale, ok := m.locales[code]
	if !ok {
		return nil, &NotFoundError{Code: code}
	}
	copied := *locale
	return &copied, nil
}

func (m *MemoryRepository) List(context.Context) ([]Locale, error) {
	return m.list(false), nil
}

func (m *MemoryRepository) ListEnabled(context.Context) ([]Locale, error) {
	return m.list(true), nil
}

func (m *MemoryRepository) SetEnabled(_ context.Context, code string, enabled bool) (*Locale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code = NormalizeCode(code)
	locale, ok := m.locales[code]
	if !ok {
		return nil, &NotFoundError{Code: code}
	}
	locale.Enabled = enabled
	locale.UpdatedAt = m.now()
	copied := *locale
	return &copied, nil
}

func (m *MemoryRepository) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	code = NormalizeCode(code)
	if _, ok := m.locales[code]; !ok {
		return &NotFoundError{Code: code}
	}
	delete(m.locales, code)
	return nil
}

func (m *MemoryRepository) list(enabledOnly bool) []Locale {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Locale, 0, len(m.locales))
	for _, locale := range m.locales {
		if enabledOnly && !locale.Enabled {
			continue
		}
		out = append(out, *locale)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
