package revisions

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-revisions/internal/templates"
)

// childrenMarker marks repeater keys that hold nested child rows.
const childrenMarker = "children"

// scalarSubKey is the leaf sub key of a repeater row that is not an object.
// The stored row structure keeps such a row as a bare term key.
const scalarSubKey = "0"

// generic converts value into the shapes encoding/json produces, so the
// rest of the package only deals with map[string]any, []any and scalars.
func generic(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, float64:
		return v, nil
	case json.RawMessage:
		return decodeJSON(v)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("revisions: encode value: %w", err)
	}
	return decodeJSON(encoded)
}

func decodeJSON(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("revisions: decode value: %w", err)
	}
	return out, nil
}

func encodeJSON(value any) (json.RawMessage, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("revisions: encode value: %w", err)
	}
	return encoded, nil
}

// isEmpty matches nil, "", and empty lists or objects. false and 0 are
// values.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func isSequential(value any) bool {
	_, ok := value.([]any)
	return ok
}

// stripEmpty drops empty entries one level deep.
func stripEmpty(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			if !isEmpty(item) {
				out = append(out, item)
			}
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			if !isEmpty(item) {
				out[key] = item
			}
		}
		return out
	default:
		return value
	}
}

// collapseToIDs reduces objects to their ids: {id:1} becomes [1] and
// [{id:1},{id:2}] becomes [1,2]. Values without ids are kept.
func collapseToIDs(value any) any {
	if isEmpty(value) {
		return nil
	}
	switch v := value.(type) {
	case map[string]any:
		if id, ok := v["id"]; ok {
			return []any{id}
		}
		return v
	case []any:
		first, ok := v[0].(map[string]any)
		if !ok {
			return v
		}
		if _, ok := first["id"]; !ok {
			return v
		}
		ids := make([]any, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				ids = append(ids, obj["id"])
			}
		}
		return ids
	default:
		return value
	}
}

// normalizeMeta prepares a value for the meta store.
func normalizeMeta(value any, special bool) (any, error) {
	converted, err := generic(value)
	if err != nil {
		return nil, err
	}
	if isEmpty(converted) {
		return nil, nil
	}
	converted = stripEmpty(converted)
	if special {
		converted = collapseToIDs(converted)
	}
	if isEmpty(converted) {
		return nil, nil
	}
	return converted, nil
}

// transformTerm prepares a translated field value for its definition.
func transformTerm(value any, field *templates.TemplateField, opts Options) (any, error) {
	converted, err := generic(value)
	if err != nil {
		return nil, err
	}
	if field.Repeater {
		rows, ok := converted.([]any)
		if !ok {
			return converted, nil
		}
		out := make([]any, 0, len(rows))
		for _, row := range rows {
			obj, ok := row.(map[string]any)
			if !ok {
				out = append(out, row)
				continue
			}
			out = append(out, transformRow(obj, opts))
		}
		return out, nil
	}
	if opts.isSpecial(field.Type) {
		return collapseToIDs(converted), nil
	}
	return converted, nil
}

func transformRow(row map[string]any, opts Options) map[string]any {
	withChildren := make(map[string]any, len(row))
	for key, value := range row {
		children, ok := value.([]any)
		if !strings.Contains(key, childrenMarker) || !ok {
			withChildren[key] = value
			continue
		}
		rows := make([]any, 0, len(children))
		for _, child := range children {
			if obj, ok := child.(map[string]any); ok {
				rows = append(rows, specialRow(obj, opts))
			} else {
				rows = append(rows, child)
			}
		}
		withChildren[key] = rows
	}
	return specialRow(withChildren, opts)
}

// specialRow drops empty keys and collapses keys named after special types.
func specialRow(row map[string]any, opts Options) map[string]any {
	out := make(map[string]any, len(row))
	for key, value := range row {
		if isEmpty(value) {
			continue
		}
		if slices.Contains(opts.SpecialTypes, key) {
			value = collapseToIDs(value)
		}
		out[key] = value
	}
	return out
}

// repeaterLeaves flattens one repeater row into sub key, value pairs in key
// order. Scalar rows are stored under the sub key "0".
func repeaterLeaves(row any) ([]string, map[string]any) {
	obj, ok := row.(map[string]any)
	if !ok {
		return []string{scalarSubKey}, map[string]any{scalarSubKey: row}
	}
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, obj
}
