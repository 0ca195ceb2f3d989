package revisions

import (
	"context"
	"fmt"
	"strings"
)

// ReconstructRepeater rebuilds repeater rows after a read. In an object row
// a key with a registered getter is passed through it, a key containing
// "children" has its rows rebuilt one level down, and any other key is kept
// as is. Scalar rows are kept as scalars.
//
// A list of objects comes back as []map[string]any and a list holding any
// scalar as []any. A value that is not a list is returned unchanged.
func ReconstructRepeater(ctx context.Context, getters GetterRegistry, decoded any) (any, error) {
	rows, ok := decoded.([]any)
	if !ok {
		return decoded, nil
	}
	return rebuildRows(ctx, getters, rows, true)
}

func rebuildRows(ctx context.Context, getters GetterRegistry, rows []any, nested bool) (any, error) {
	out := make([]any, 0, len(rows))
	objects := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		obj, ok := row.(map[string]any)
		if !ok {
			out = append(out, row)
			objects = nil
			continue
		}
		rebuilt, err := rebuildRow(ctx, getters, obj, nested)
		if err != nil {
			return nil, err
		}
		out = append(out, rebuilt)
		if objects != nil {
			objects = append(objects, rebuilt)
		}
	}
	if objects != nil {
		return objects, nil
	}
	return out, nil
}

func rebuildRow(ctx context.Context, getters GetterRegistry, obj map[string]any, nested bool) (map[string]any, error) {
	rebuilt := make(map[string]any, len(obj))
	for key, value := range obj {
		switch getter, ok := getters.Lookup(key); {
		case ok:
			resolved, err := invokeGetter(ctx, key, getter, MetaValue{Key: key, Value: value})
			if err != nil {
				return nil, err
			}
			rebuilt[key] = resolved
		case nested && strings.Contains(key, childrenMarker):
			children, ok := value.([]any)
			if !ok {
				rebuilt[key] = value
				continue
			}
			resolved, err := rebuildRows(ctx, getters, children, false)
			if err != nil {
				return nil, err
			}
			rebuilt[key] = resolved
		default:
			rebuilt[key] = value
		}
	}
	return rebuilt, nil
}

// invokeGetter runs getter and wraps its failure, panics included.
func invokeGetter(ctx context.Context, name string, getter GetterFunc, value MetaValue) (result any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = nil
			err = &GetterInvocationError{Getter: name, Key: value.Key, Err: fmt.Errorf("%v", recovered)}
		}
	}()
	result, err = getter(ctx, value)
	if err != nil {
		return nil, &GetterInvocationError{Getter: name, Key: value.Key, Err: err}
	}
	return result, nil
}
