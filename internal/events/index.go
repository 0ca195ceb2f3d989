package events

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// IndexRule describes how one owner kind is indexed.
type IndexRule struct {
	// Keys limits the indexed fields. Empty means every field.
	Keys     []string
	TitleKey string
}

// Document is the indexed form of one owner in one locale.
type Document struct {
	Kind   string
	ID     string
	Locale string
	Title  string
	Fields map[string]any
}

// Indexer is the hook point for an external search index.
type Indexer interface {
	Index(ctx context.Context, doc Document) error
	Remove(ctx context.Context, kind, id string) error
}

// IndexHook feeds published content to an Indexer and removes deleted
// owners. Kinds without a rule are ignored.
type IndexHook struct {
	indexer Indexer
	rules   map[string]IndexRule
}

var _ Subscriber = (*IndexHook)(nil)

func NewIndexHook(indexer Indexer, rules map[string]IndexRule) *IndexHook {
	return &IndexHook{indexer: indexer, rules: maps.Clone(rules)}
}

func (h *IndexHook) Handle(ctx context.Context, event Event) error {
	if h == nil || h.indexer == nil {
		return nil
	}
	rule, ok := h.rules[event.Subject.Kind]
	if !ok {
		return nil
	}

	switch event.Name {
	case RevisionPublished:
		for _, locale := range sortedStrings(slices.Collect(maps.Keys(event.Content))) {
			doc := buildDocument(event.Subject, locale, event.Content[locale], rule)
			if err := h.indexer.Index(ctx, doc); err != nil {
				return fmt.Errorf("events: index %s %s (%s): %w", doc.Kind, doc.ID, locale, err)
			}
		}
	case RevisionDeleted:
		if err := h.indexer.Remove(ctx, event.Subject.Kind, event.Subject.ID); err != nil {
			return fmt.Errorf("events: remove %s %s from index: %w", event.Subject.Kind, event.Subject.ID, err)
		}
	}
	return nil
}

func buildDocument(subject Subject, locale string, content map[string]any, rule IndexRule) Document {
	fields := make(map[string]any)
	if len(rule.Keys) == 0 {
		maps.Copy(fields, content)
	} else {
		for _, key := range rule.Keys {
			if value, ok := content[key]; ok {
				fields[key] = value
			}
		}
	}

	title := subject.Title
	if rule.TitleKey != "" {
		if value, ok := content[rule.TitleKey].(string); ok && value != "" {
			title = value
		}
	}
	return Document{
		Kind:   subject.Kind,
		ID:     subject.ID,
		Locale: locale,
		Title:  title,
		Fields: fields,
	}
}

// MemoryIndex is an Indexer that keeps documents in process.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]Document
}

var _ Indexer = (*MemoryIndex)(nil)

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[string]Document)}
}

func (m *MemoryIndex) Index(_ context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.Fields = maps.Clone(doc.Fields)
	m.docs[documentKey(doc.Kind, doc.ID, doc.Locale)] = doc
	return nil
}

func (m *MemoryIndex) Remove(_ context.Context, kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := kind + "/" + id + "/"
	for key := range m.docs {
		if strings.HasPrefix(key, prefix) {
			delete(m.docs, key)
		}
	}
	return nil
}

// Get returns the document indexed for kind, id and locale.
func (m *MemoryIndex) Get(kind, id, locale string) (Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[documentKey(kind, id, locale)]
	return doc, ok
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func documentKey(kind, id, locale string) string {
	return kind + "/" + id + "/" + locale
}

func sortedStrings(values []string) []string {
	slices.Sort(values)
	return values
}
