package revisions

import (
	"context"
	"fmt"

	"github.com/goliatone/go-revisions/internal/events"
	"github.com/goliatone/go-revisions/internal/meta"
	"github.com/goliatone/go-revisions/internal/templates"
)

// UpdateContent writes field data for owner at revision in locale.
//
// Fields are written in the order of data. An unknown field key stops the
// call; fields written before it stay stored. An empty locale uses the
// engine default and a non-positive revision the owner's current one.
func (e *Engine) UpdateContent(ctx context.Context, owner Revisionable, data FieldData, locale string, revision int) (WriteResults, error) {
	return e.updateContent(ctx, owner, data, locale, revision, true)
}

func (e *Engine) updateContent(ctx context.Context, owner Revisionable, data FieldData, locale string, revision int, notify bool) (WriteResults, error) {
	c, err := e.begin(ctx, owner, revision, locale)
	if err != nil {
		return nil, err
	}

	results := make(WriteResults, 0, data.Len())
	for _, key := range data.Keys() {
		value, _ := data.Get(key)
		result, err := e.writeField(ctx, c, key, value)
		if err != nil {
			c.logger.Warn("revisions.update_failed", "field", key, "error", err)
			return results, err
		}
		results = append(results, result)
	}

	c.logger.Debug("revisions.updated", "fields", len(results))
	if notify {
		e.publishEvent(ctx, events.Event{
			Name:     events.RevisionUpdated,
			Subject:  subject(owner),
			Revision: c.revision,
			Locale:   c.locale,
			Fields:   results.Fields(),
			Changes:  results.Changes(),
			Owner:    owner,
		})
	}
	return results, nil
}

func (e *Engine) writeField(ctx context.Context, c *call, key string, value any) (WriteResult, error) {
	field, err := e.field(ctx, c, key)
	if err != nil {
		return WriteResult{}, err
	}
	if err := e.templates.ValidateValue(field, value); err != nil {
		return WriteResult{}, err
	}

	identifierKey, err := e.scheme.Build(c.ref.Kind, c.ref.ID, c.revision, key)
	if err != nil {
		return WriteResult{}, err
	}

	switch {
	case !field.Translated && !field.Repeater:
		return e.writeMetaField(ctx, c, field, identifierKey, value)
	case !field.Translated && isSequentialValue(value):
		return e.writeRepeaterLeaves(ctx, c, field, value)
	default:
		return e.writeTermField(ctx, c, field, identifierKey, value)
	}
}

func (e *Engine) writeMetaField(ctx context.Context, c *call, field *templates.TemplateField, identifierKey string, value any) (WriteResult, error) {
	fieldPrefix := e.scheme.FieldPrefix(c.ref.Kind, c.ref.ID, c.revision, field.Key)
	if _, err := e.terms.DeleteKeys(ctx, identifierKey); err != nil {
		return WriteResult{}, err
	}
	if _, err := e.terms.DeleteByPrefix(ctx, fieldPrefix); err != nil {
		return WriteResult{}, err
	}

	stored, err := e.upsertMeta(ctx, c, field.Key, value, c.kind.Options.isSpecial(field.Type))
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{
		Field:      field.Key,
		Path:       PathMeta,
		Identifier: identifierKey,
		Content:    stored.Value,
		Meta:       stored,
	}, nil
}

func (e *Engine) writeRepeaterLeaves(ctx context.Context, c *call, field *templates.TemplateField, value any) (WriteResult, error) {
	converted, err := generic(value)
	if err != nil {
		return WriteResult{}, err
	}
	rows, _ := converted.([]any)
	description := describe(field, c.owner)

	identifiers := make([]map[string]string, 0, len(rows))
	structure := make([]any, 0, len(rows))
	for index, row := range rows {
		subKeys, leaves := repeaterLeaves(row)
		keys := make(map[string]string, len(subKeys))
		for _, subKey := range subKeys {
			leafKey, err := e.scheme.BuildRepeater(c.ref.Kind, c.ref.ID, c.revision, field.Key, index, subKey)
			if err != nil {
				return WriteResult{}, err
			}
			content, err := encodeJSON(leaves[subKey])
			if err != nil {
				return WriteResult{}, err
			}
			term, err := e.terms.UpsertTerm(ctx, leafKey, description)
			if err != nil {
				return WriteResult{}, err
			}
			if _, err := e.terms.UpsertDefinition(ctx, term.ID, c.locale, content); err != nil {
				return WriteResult{}, err
			}
			keys[subKey] = leafKey
		}
		identifiers = append(identifiers, keys)
		if _, isObject := row.(map[string]any); isObject {
			structure = append(structure, keys)
		} else {
			structure = append(structure, keys[scalarSubKey])
		}
	}

	encoded, err := encodeJSON(structure)
	if err != nil {
		return WriteResult{}, err
	}
	stored, err := e.meta.Upsert(ctx, c.metaOwner(), c.revision, field.Key, encoded)
	if err != nil {
		return WriteResult{}, err
	}
	fieldPrefix := e.scheme.FieldPrefix(c.ref.Kind, c.ref.ID, c.revision, field.Key)
	return WriteResult{
		Field:       field.Key,
		Path:        PathRepeater,
		Identifier:  fieldPrefix,
		Content:     stored.Value,
		Meta:        stored,
		Identifiers: identifiers,
	}, nil
}

func (e *Engine) writeTermField(ctx context.Context, c *call, field *templates.TemplateField, identifierKey string, value any) (WriteResult, error) {
	transformed, err := transformTerm(value, field, c.kind.Options)
	if err != nil {
		return WriteResult{}, err
	}
	content, err := encodeJSON(transformed)
	if err != nil {
		return WriteResult{}, err
	}

	term, err := e.terms.UpsertTerm(ctx, identifierKey, describe(field, c.owner))
	if err != nil {
		return WriteResult{}, err
	}
	definition, err := e.terms.UpsertDefinition(ctx, term.ID, c.locale, content)
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{
		Field:      field.Key,
		Path:       PathTerm,
		Identifier: identifierKey,
		Content:    definition.Content,
		Term:       term,
		Definition: definition,
	}, nil
}

func (e *Engine) upsertMeta(ctx context.Context, c *call, key string, value any, special bool) (*meta.Meta, error) {
	normalized, err := normalizeMeta(value, special)
	if err != nil {
		return nil, err
	}
	encoded, err := encodeJSON(normalized)
	if err != nil {
		return nil, err
	}
	return e.meta.Upsert(ctx, c.metaOwner(), c.revision, key, encoded)
}

// UpdateMetaItem writes one meta value for owner without a field lookup.
// Keys named after a special type collapse objects to ids.
func (e *Engine) UpdateMetaItem(ctx context.Context, owner Revisionable, key string, value any, revision int) (*meta.Meta, error) {
	c, err := e.begin(ctx, owner, revision, "")
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("revisions: meta key is required")
	}
	return e.upsertMeta(ctx, c, key, value, c.kind.Options.isSpecial(key))
}

// UpdateMetaContent writes every entry of data as a meta item.
func (e *Engine) UpdateMetaContent(ctx context.Context, owner Revisionable, data FieldData, revision int) ([]*meta.Meta, error) {
	out := make([]*meta.Meta, 0, data.Len())
	for _, key := range data.Keys() {
		value, _ := data.Get(key)
		stored, err := e.UpdateMetaItem(ctx, owner, key, value, revision)
		if err != nil {
			return out, err
		}
		out = append(out, stored)
	}
	return out, nil
}

func describe(field *templates.TemplateField, owner Revisionable) string {
	return field.DisplayName() + " for " + owner.RevisionTitle()
}

func isSequentialValue(value any) bool {
	converted, err := generic(value)
	if err != nil {
		return false
	}
	return isSequential(converted)
}
