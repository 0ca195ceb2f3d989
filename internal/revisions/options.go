package revisions

import (
	"context"
	"maps"
	"slices"
	"strings"
)

// MetaValue is handed to getters. Value holds the decoded stored value.
type MetaValue struct {
	Key      string
	Type     string
	Owner    Owner
	Revision int
	Locale   string
	Value    any
}

// GetterFunc turns a stored value into the value returned by reads.
type GetterFunc func(ctx context.Context, value MetaValue) (any, error)

// GetterRegistry maps a field type or key to its getter.
type GetterRegistry map[string]GetterFunc

func (r GetterRegistry) Lookup(tag string) (GetterFunc, bool) {
	if r == nil || tag == "" {
		return nil, false
	}
	fn, ok := r[tag]
	return fn, ok && fn != nil
}

// Options configures how one owner kind is revisioned.
type Options struct {
	// DefaultTemplate scopes field lookups to one template slug.
	DefaultTemplate string
	// SpecialTypes lists field types whose objects collapse to their ids.
	SpecialTypes []string
	Getters      GetterRegistry
	// CacheKeysToFlush are deleted on every change. "{id}" is replaced by
	// the owner id.
	CacheKeysToFlush []string
	Indexable        bool
	IndexableKeys    []string
	TitleKey         string
}

func (o Options) isSpecial(fieldType string) bool {
	return fieldType != "" && slices.Contains(o.SpecialTypes, fieldType)
}

func (o Options) clone() Options {
	out := o
	out.SpecialTypes = slices.Clone(o.SpecialTypes)
	out.Getters = maps.Clone(o.Getters)
	out.CacheKeysToFlush = slices.Clone(o.CacheKeysToFlush)
	out.IndexableKeys = slices.Clone(o.IndexableKeys)
	out.DefaultTemplate = strings.TrimSpace(o.DefaultTemplate)
	return out
}
