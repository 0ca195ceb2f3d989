package meta

import (
	"context"
	"encoding/json"
)

// Repository stores meta rows keyed by (key, owner, revision).
type Repository interface {
	Upsert(ctx context.Context, owner Owner, revision int, key string, value json.RawMessage) (*Meta, error)
	Get(ctx context.Context, owner Owner, revision int, key string) (*Meta, error)
	List(ctx context.Context, owner Owner, revision int) ([]*Meta, error)
	// DeleteThrough removes every row of owner with revision_number <= revision.
	DeleteThrough(ctx context.Context, owner Owner, revision int) (int, error)
	DeleteOwner(ctx context.Context, owner Owner) (int, error)
}
