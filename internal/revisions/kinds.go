package revisions

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-revisions/internal/events"
)

// OwnerStore loads and persists the owners of one kind.
type OwnerStore interface {
	Load(ctx context.Context, id string) (Revisionable, error)
	Save(ctx context.Context, owner Revisionable) error
}

// Kind is the registration of one owner kind.
type Kind struct {
	Name    string
	Options Options
	Store   OwnerStore
}

// Kinds resolves owner kinds to their options and stores.
type Kinds struct {
	mu    sync.RWMutex
	kinds map[string]Kind
}

func NewKinds(kinds ...Kind) (*Kinds, error) {
	k := &Kinds{kinds: make(map[string]Kind)}
	for _, kind := range kinds {
		if err := k.Register(kind); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func (k *Kinds) Register(kind Kind) error {
	name := strings.TrimSpace(kind.Name)
	if name == "" {
		return fmt.Errorf("revisions: kind name is required")
	}
	kind.Name = name
	kind.Options = kind.Options.clone()

	k.mu.Lock()
	defer k.mu.Unlock()
	k.kinds[name] = kind
	return nil
}

// Configure replaces the options of an already registered kind, or
// registers the kind without a store.
func (k *Kinds) Configure(name string, opts Options) error {
	k.mu.RLock()
	kind, ok := k.kinds[name]
	k.mu.RUnlock()
	if !ok {
		kind = Kind{Name: name}
	}
	kind.Options = opts
	return k.Register(kind)
}

func (k *Kinds) Lookup(name string) (Kind, error) {
	if k == nil {
		return Kind{}, &UnknownKindError{Kind: name}
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	kind, ok := k.kinds[name]
	if !ok {
		return Kind{}, &UnknownKindError{Kind: name}
	}
	return kind, nil
}

func (k *Kinds) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	names := make([]string, 0, len(k.kinds))
	for name := range k.kinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CacheKeys returns the cache keys to flush per kind.
func (k *Kinds) CacheKeys() map[string][]string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make(map[string][]string)
	for name, kind := range k.kinds {
		if len(kind.Options.CacheKeysToFlush) > 0 {
			out[name] = slices.Clone(kind.Options.CacheKeysToFlush)
		}
	}
	return out
}

// IndexRules returns the index rules of every indexable kind.
func (k *Kinds) IndexRules() map[string]events.IndexRule {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make(map[string]events.IndexRule)
	for name, kind := range k.kinds {
		if !kind.Options.Indexable {
			continue
		}
		out[name] = events.IndexRule{
			Keys:     slices.Clone(kind.Options.IndexableKeys),
			TitleKey: kind.Options.TitleKey,
		}
	}
	return out
}
