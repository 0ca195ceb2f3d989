package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrMetaNotFound = errors.New("meta: entry not found")

// NotFoundError identifies the missing meta entry.
type NotFoundError struct {
	Owner    Owner
	Revision int
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("meta: %q not found for %s/%s revision %d", e.Key, e.Owner.Type, e.Owner.ID, e.Revision)
}

func (e *NotFoundError) Unwrap() error { return ErrMetaNotFound }

// Owner is the polymorphic reference a meta row belongs to.
type Owner struct {
	Type string `json:"owner_type"`
	ID   string `json:"owner_id"`
}

// Meta is an untranslated, revision scoped field value. Value holds JSON.
type Meta struct {
	ID        uuid.UUID       `json:"id"`
	Key       string          `json:"meta_key"`
	Owner     Owner           `json:"owner"`
	Revision  int             `json:"revision_number"`
	Value     json.RawMessage `json:"meta_value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func normalizeValue(value json.RawMessage) json.RawMessage {
	if len(value) == 0 {
		return json.RawMessage("null")
	}
	return append(json.RawMessage(nil), value...)
}

func cloneMeta(src *Meta) *Meta {
	if src == nil {
		return nil
	}
	copied := *src
	copied.Value = append(json.RawMessage(nil), src.Value...)
	return &copied
}
