package revisions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-revisions/internal/meta"
	"github.com/goliatone/go-revisions/internal/templates"
	"github.com/goliatone/go-revisions/internal/terms"
)

// GetFieldContent reassembles the fields of owner at revision in locale.
//
// Meta values win over term values with the same key. Fields stored in
// neither place are omitted.
func (e *Engine) GetFieldContent(ctx context.Context, owner Revisionable, revision int, locale string) (Content, error) {
	c, err := e.begin(ctx, owner, revision, locale)
	if err != nil {
		return nil, err
	}
	content, _, err := e.read(ctx, c)
	return content, err
}

// read returns the content of the call revision and the meta keys that no
// template field describes.
func (e *Engine) read(ctx context.Context, c *call) (Content, []string, error) {
	prefix := e.scheme.Prefix(c.ref.Kind, c.ref.ID, c.revision)
	entries, err := e.terms.ListByPrefix(ctx, prefix, c.locale)
	if err != nil {
		return nil, nil, err
	}

	content := Content{}
	leaves := make(map[string]terms.Entry)
	for _, entry := range entries {
		parts, err := e.scheme.Parse(c.ref.Kind, entry.Key)
		if err != nil {
			return nil, nil, err
		}
		if parts.Repeater {
			leaves[entry.Key] = entry
			continue
		}
		field, err := e.field(ctx, c, parts.FieldKey)
		if err != nil {
			return nil, nil, err
		}
		value, err := e.readTerm(ctx, c, field, entry)
		if err != nil {
			return nil, nil, err
		}
		content[field.Key] = value
	}

	var unbound []string
	rows, err := e.meta.List(ctx, c.metaOwner(), c.revision)
	if err != nil {
		return nil, nil, err
	}
	for _, row := range rows {
		field, err := e.field(ctx, c, row.Key)
		switch {
		case errors.Is(err, templates.ErrFieldKeyNotFound):
			field = nil
			unbound = append(unbound, row.Key)
		case err != nil:
			return nil, nil, err
		}
		value, err := e.readMeta(ctx, c, field, row, leaves)
		if err != nil {
			return nil, nil, err
		}
		content[row.Key] = value
	}
	return content, unbound, nil
}

func (e *Engine) readTerm(ctx context.Context, c *call, field *templates.TemplateField, entry terms.Entry) (any, error) {
	decoded, err := decodeJSON(entry.Content)
	if err != nil {
		return nil, fmt.Errorf("revisions: term %q: %w", entry.Key, err)
	}
	if field.Repeater {
		return ReconstructRepeater(ctx, c.kind.Options.Getters, decoded)
	}
	if getter, ok := c.kind.Options.Getters.Lookup(field.Type); ok {
		return invokeGetter(ctx, field.Type, getter, c.metaValue(field.Key, field.Type, decoded))
	}
	return decoded, nil
}

func (e *Engine) readMeta(ctx context.Context, c *call, field *templates.TemplateField, row *meta.Meta, leaves map[string]terms.Entry) (any, error) {
	decoded, err := decodeJSON(row.Value)
	if err != nil {
		return nil, fmt.Errorf("revisions: meta %q: %w", row.Key, err)
	}

	fieldType := ""
	if field != nil {
		fieldType = field.Type
	}
	if getter, ok := c.kind.Options.Getters.Lookup(row.Key); ok {
		return invokeGetter(ctx, row.Key, getter, c.metaValue(row.Key, fieldType, decoded))
	}
	if getter, ok := c.kind.Options.Getters.Lookup(fieldType); ok {
		return invokeGetter(ctx, fieldType, getter, c.metaValue(row.Key, fieldType, decoded))
	}

	if field != nil && field.Repeater && !field.Translated {
		prefix := e.scheme.FieldPrefix(c.ref.Kind, c.ref.ID, c.revision, field.Key)
		if structure, ok := identifierStructure(decoded, prefix); ok {
			rows, err := e.resolveLeaves(ctx, c, structure, leaves)
			if err != nil {
				return nil, err
			}
			return ReconstructRepeater(ctx, c.kind.Options.Getters, rows)
		}
	}
	return decoded, nil
}

// leafRow is one stored row of an untranslated repeater: the term key per
// sub key of an object row, or the single term key of a scalar row.
type leafRow struct {
	keys   map[string]string
	scalar string
}

// resolveLeaves swaps every identifier in structure for its definition in
// the call locale.
func (e *Engine) resolveLeaves(ctx context.Context, c *call, structure []leafRow, leaves map[string]terms.Entry) ([]any, error) {
	rows := make([]any, 0, len(structure))
	for _, leaf := range structure {
		if leaf.keys == nil {
			value, err := e.resolveLeaf(ctx, c, leaf.scalar, leaves)
			if err != nil {
				return nil, err
			}
			rows = append(rows, value)
			continue
		}
		row := make(map[string]any, len(leaf.keys))
		for subKey, termKey := range leaf.keys {
			value, err := e.resolveLeaf(ctx, c, termKey, leaves)
			if err != nil {
				return nil, err
			}
			row[subKey] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (e *Engine) resolveLeaf(ctx context.Context, c *call, termKey string, leaves map[string]terms.Entry) (any, error) {
	entry, ok := leaves[termKey]
	if !ok {
		return e.TranslateByKey(ctx, termKey, c.locale)
	}
	value, err := decodeJSON(entry.Content)
	if err != nil {
		return nil, fmt.Errorf("revisions: term %q: %w", termKey, err)
	}
	return value, nil
}

// identifierStructure recognises the rows of term keys written for an
// untranslated repeater.
func identifierStructure(value any, prefix string) ([]leafRow, bool) {
	list, ok := value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]leafRow, 0, len(list))
	for _, item := range list {
		switch item := item.(type) {
		case string:
			if !strings.HasPrefix(item, prefix) {
				return nil, false
			}
			out = append(out, leafRow{scalar: item})
		case map[string]any:
			keys := make(map[string]string, len(item))
			for subKey, raw := range item {
				termKey, ok := raw.(string)
				if !ok || !strings.HasPrefix(termKey, prefix) {
					return nil, false
				}
				keys[subKey] = termKey
			}
			out = append(out, leafRow{keys: keys})
		default:
			return nil, false
		}
	}
	return out, true
}

// TranslateByKey returns the decoded definition of one term in locale. A
// blank key or a missing definition yields nil.
func (e *Engine) TranslateByKey(ctx context.Context, key, locale string) (any, error) {
	if strings.TrimSpace(key) == "" {
		return nil, nil
	}
	if strings.TrimSpace(locale) == "" {
		locale = e.defaultLocale
	}
	entry, err := e.terms.Translate(ctx, key, locale)
	if err != nil {
		if errors.Is(err, terms.ErrTermNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeJSON(entry.Content)
}

func (c *call) metaValue(key, fieldType string, value any) MetaValue {
	return MetaValue{
		Key:      key,
		Type:     fieldType,
		Owner:    c.ref,
		Revision: c.revision,
		Locale:   c.locale,
		Value:    value,
	}
}
