package terms

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrTermNotFound = errors.New("terms: term not found")

// NotFoundError identifies the missing term or definition.
type NotFoundError struct {
	Key    string
	Locale string
}

func (e *NotFoundError) Error() string {
	if e.Locale != "" {
		return fmt.Sprintf("terms: no %q definition for %q", e.Locale, e.Key)
	}
	return fmt.Sprintf("terms: term %q not found", e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrTermNotFound }

// Term is a translation key.
type Term struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Definition is the value of a term in one locale. Content holds JSON.
type Definition struct {
	ID        uuid.UUID       `json:"id"`
	TermID    uuid.UUID       `json:"term_id"`
	Locale    string          `json:"locale"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Entry joins a term with its definition in one locale.
type Entry struct {
	TermID      uuid.UUID       `json:"term_id"`
	Key         string          `json:"key"`
	Description string          `json:"description"`
	Locale      string          `json:"locale"`
	Content     json.RawMessage `json:"content"`
}

func normalizeContent(content json.RawMessage) json.RawMessage {
	if len(content) == 0 {
		return json.RawMessage("null")
	}
	return append(json.RawMessage(nil), content...)
}

func cloneTerm(src *Term) *Term {
	if src == nil {
		return nil
	}
	copied := *src
	return &copied
}

func cloneDefinition(src *Definition) *Definition {
	if src == nil {
		return nil
	}
	copied := *src
	copied.Content = append(json.RawMessage(nil), src.Content...)
	return &copied
}
