package revisions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// FieldData is field values keyed by field key, kept in insertion order.
type FieldData struct {
	keys   []string
	values map[string]any
}

// NewFieldData builds field data from alternating key, value pairs.
func NewFieldData(pairs ...any) (FieldData, error) {
	var data FieldData
	if len(pairs)%2 != 0 {
		return data, fmt.Errorf("revisions: field data needs key/value pairs, got %d items", len(pairs))
	}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return data, fmt.Errorf("revisions: field key at %d is %T, want string", i, pairs[i])
		}
		data.Set(key, pairs[i+1])
	}
	return data, nil
}

// FieldDataFromMap copies m with its keys in sorted order.
func FieldDataFromMap(m map[string]any) FieldData {
	var data FieldData
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		data.Set(key, m[key])
	}
	return data
}

// Set stores value under key. Existing keys keep their position.
func (d *FieldData) Set(key string, value any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

func (d FieldData) Get(key string) (any, bool) {
	value, ok := d.values[key]
	return value, ok
}

func (d FieldData) Keys() []string {
	return slices.Clone(d.keys)
}

func (d FieldData) Len() int {
	return len(d.keys)
}

// Map returns an unordered copy.
func (d FieldData) Map() map[string]any {
	out := make(map[string]any, len(d.keys))
	for _, key := range d.keys {
		out[key] = d.values[key]
	}
	return out
}

func (d FieldData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		encodedValue, err := json.Marshal(d.values[key])
		if err != nil {
			return nil, fmt.Errorf("revisions: encode field %q: %w", key, err)
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the document order of the top level keys.
func (d *FieldData) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("revisions: field data must be a JSON object")
	}

	*d = FieldData{}
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := token.(string)
		if !ok {
			return fmt.Errorf("revisions: unexpected field key %v", token)
		}
		var value any
		if err := decoder.Decode(&value); err != nil {
			return fmt.Errorf("revisions: decode field %q: %w", key, err)
		}
		d.Set(key, value)
	}
	_, err = decoder.Token()
	return err
}

// Content is field content keyed by field key, as returned by reads.
type Content map[string]any

// FieldData converts content back into writable field data.
func (c Content) FieldData() FieldData {
	return FieldDataFromMap(c)
}
