package terms

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Repository stores terms and their per-locale definitions.
//
// Prefix arguments are plain key prefixes. Implementations match them
// literally, so wildcard characters inside a prefix carry no meaning.
type Repository interface {
	UpsertTerm(ctx context.Context, key, description string) (*Term, error)
	UpsertDefinition(ctx context.Context, termID uuid.UUID, locale string, content json.RawMessage) (*Definition, error)
	GetByKey(ctx context.Context, key string) (*Term, error)
	Translate(ctx context.Context, key, locale string) (*Entry, error)
	ListByPrefix(ctx context.Context, prefix, locale string) ([]Entry, error)
	ListTermsByPrefix(ctx context.Context, prefix string) ([]*Term, error)
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
	DeleteKeys(ctx context.Context, keys ...string) (int, error)
}
