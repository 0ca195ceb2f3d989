package templates

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaCache holds compiled field schemas keyed by their JSON encoding.
type schemaCache struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

func newSchemaCache() *schemaCache {
	return &schemaCache{compiled: make(map[string]*jsonschema.Schema)}
}

func (c *schemaCache) get(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFieldSchemaInvalid, err)
	}
	key := string(encoded)

	c.mu.RLock()
	compiled, ok := c.compiled[key]
	c.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("field.json", bytes.NewReader(encoded)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFieldSchemaInvalid, err)
	}
	compiled, err = compiler.Compile("field.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFieldSchemaInvalid, err)
	}

	c.mu.Lock()
	c.compiled[key] = compiled
	c.mu.Unlock()
	return compiled, nil
}

func (c *schemaCache) validate(field *TemplateField, value any) error {
	schema := field.Schema()
	if schema == nil {
		return nil
	}
	compiled, err := c.get(schema)
	if err != nil {
		return err
	}
	instance, err := toJSONValue(value)
	if err != nil {
		return &FieldValueError{Key: field.Key, Issues: []Issue{{Message: err.Error()}}}
	}
	if err := compiled.Validate(instance); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return &FieldValueError{Key: field.Key, Issues: collectIssues(validationErr)}
		}
		return &FieldValueError{Key: field.Key, Issues: []Issue{{Message: err.Error()}}}
	}
	return nil
}

// toJSONValue converts Go values into the generic shapes the validator
// accepts (map[string]any, []any, float64, string, bool, nil).
func toJSONValue(value any) (any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	issues := []Issue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
