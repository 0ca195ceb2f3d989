package templates

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTemplateNotFound     = errors.New("templates: template not found")
	ErrTemplateSlugRequired = errors.New("templates: slug is required")
	ErrFieldKeyRequired     = errors.New("templates: field key is required")
	ErrDuplicateFieldKey    = errors.New("templates: duplicate field key")
	ErrFieldKeyNotFound     = errors.New("templates: field key not found")
	ErrFieldSchemaInvalid   = errors.New("templates: field schema invalid")
	ErrFieldValueInvalid    = errors.New("templates: field value invalid")
)

// FieldKeyNotFoundError reports a field key that no template defines.
// Template is empty when the lookup was not scoped to one template.
type FieldKeyNotFoundError struct {
	Key      string
	Template string
}

func (e *FieldKeyNotFoundError) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("templates: field key %q not found", e.Key)
	}
	return fmt.Sprintf("templates: field key %q not found in template %q", e.Key, e.Template)
}

func (e *FieldKeyNotFoundError) Unwrap() error { return ErrFieldKeyNotFound }

// NotFoundError identifies a missing template.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("templates: template %q not found", e.Slug)
}

func (e *NotFoundError) Unwrap() error { return ErrTemplateNotFound }

// Issue is one schema violation.
type Issue struct {
	Location string
	Message  string
}

// FieldValueError lists the schema violations of one field value.
type FieldValueError struct {
	Key    string
	Issues []Issue
}

func (e *FieldValueError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		parts = append(parts, location+": "+issue.Message)
	}
	return fmt.Sprintf("templates: field %q invalid: %s", e.Key, strings.Join(parts, "; "))
}

func (e *FieldValueError) Unwrap() error { return ErrFieldValueInvalid }
