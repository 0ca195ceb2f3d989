package meta

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-revisions/internal/identity"
)

type memoryKey struct {
	owner    Owner
	revision int
	key      string
}

// MemoryRepository keeps meta rows in process.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[memoryKey]*Meta
	now     func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[memoryKey]*Meta),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepository) Upsert(_ context.Context, owner Owner, revision int, key string, value json.RawMessage) (*Meta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	k := memoryKey{owner: owner, revision: revision, key: key}
	if existing, ok := m.entries[k]; ok {
		existing.Value = normalizeValue(value)
		existing.UpdatedAt = now
		return cloneMeta(existing), nil
	}
	entry := &Meta{
		ID:        identity.MetaUUID(owner.Type, owner.ID, revision, key),
		Key:       key,
		Owner:     owner,
		Revision:  revision,
		Value:     normalizeValue(value),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.entries[k] = entry
	return cloneMeta(entry), nil
}

func (m *MemoryRepository) Get(_ context.Context, owner Owner, revision int, key string) (*Meta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[memoryKey{owner: owner, revision: revision, key: key}]
	if !ok {
		return nil, &NotFoundError{Owner: owner, Revision: revision, Key: key}
	}
	return cloneMeta(entry), nil
}

func (m *MemoryRepository) List(_ context.Context, owner Owner, revision int) ([]*Meta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Meta
	for k, entry := range m.entries {
		if k.owner == owner && k.revision == revision {
			out = append(out, cloneMeta(entry))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryRepository) DeleteThrough(_ context.Context, owner Owner, revision int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k := range m.entries {
		if k.owner == owner && k.revision <= revision {
			delete(m.entries, k)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryRepository) DeleteOwner(_ context.Context, owner Owner) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k := range m.entries {
		if k.owner == owner {
			delete(m.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored rows.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
