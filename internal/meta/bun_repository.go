package meta

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-revisions/internal/identity"
	"github.com/goliatone/go-revisions/internal/storage"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type metaRecord struct {
	bun.BaseModel `bun:"table:revision_meta"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	MetaKey   string    `bun:"meta_key,notnull,unique:meta_owner_revision"`
	OwnerID   string    `bun:"owner_id,notnull,unique:meta_owner_revision"`
	OwnerType string    `bun:"owner_type,notnull,unique:meta_owner_revision"`
	Revision  int       `bun:"revision_number,notnull,unique:meta_owner_revision"`
	Value     string    `bun:"meta_value,type:text"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

const metaColumns = "id, meta_key, owner_id, owner_type, revision_number, meta_value, created_at, updated_at"

// Schema creates the meta table.
func Schema() storage.SchemaStep {
	return storage.SchemaStep{
		Name: "meta",
		Create: func(ctx context.Context, db bun.IDB, tables storage.Tables) error {
			return storage.CreateTable(ctx, db, (*metaRecord)(nil), tables.Meta)
		},
	}
}

// BunRepository stores meta rows in the configured meta table.
type BunRepository struct {
	db    *bun.DB
	table string
	now   func() time.Time
}

var _ Repository = (*BunRepository)(nil)

func NewBunRepository(db *bun.DB, tables storage.Tables) *BunRepository {
	return &BunRepository{
		db:    db,
		table: tables.Resolve().Meta,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *BunRepository) conn(ctx context.Context) bun.IDB {
	return storage.IDB(ctx, r.db)
}

func (r *BunRepository) Upsert(ctx context.Context, owner Owner, revision int, key string, value json.RawMessage) (*Meta, error) {
	now := r.now()
	record := &metaRecord{
		ID:        identity.MetaUUID(owner.Type, owner.ID, revision, key),
		MetaKey:   key,
		OwnerID:   owner.ID,
		OwnerType: owner.Type,
		Revision:  revision,
		Value:     string(normalizeValue(value)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.conn(ctx).NewInsert().
		Model(record).
		ModelTableExpr("?", bun.Ident(r.table)).
		On("CONFLICT (meta_key, owner_id, owner_type, revision_number) DO UPDATE").
		Set("meta_value = EXCLUDED.meta_value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, storage.MapError(err, "meta")
	}
	return r.Get(ctx, owner, revision, key)
}

func (r *BunRepository) Get(ctx context.Context, owner Owner, revision int, key string) (*Meta, error) {
	var rows []metaRecord
	err := r.conn(ctx).NewRaw(
		"SELECT "+metaColumns+" FROM ? WHERE owner_type = ? AND owner_id = ? AND revision_number = ? AND meta_key = ?",
		bun.Ident(r.table), owner.Type, owner.ID, revision, key,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, storage.MapError(err, "meta")
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Owner: owner, Revision: revision, Key: key}
	}
	return metaFromRecord(rows[0]), nil
}

func (r *BunRepository) List(ctx context.Context, owner Owner, revision int) ([]*Meta, error) {
	var rows []metaRecord
	err := r.conn(ctx).NewRaw(
		"SELECT "+metaColumns+" FROM ? WHERE owner_type = ? AND owner_id = ? AND revision_number = ? ORDER BY meta_key",
		bun.Ident(r.table), owner.Type, owner.ID, revision,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, storage.MapError(err, "meta")
	}
	out := make([]*Meta, 0, len(rows))
	for _, row := range rows {
		out = append(out, metaFromRecord(row))
	}
	return out, nil
}

func (r *BunRepository) DeleteThrough(ctx context.Context, owner Owner, revision int) (int, error) {
	res, err := r.conn(ctx).NewDelete().
		TableExpr("?", bun.Ident(r.table)).
		Where("owner_type = ?", owner.Type).
		Where("owner_id = ?", owner.ID).
		Where("revision_number <= ?", revision).
		Exec(ctx)
	if err != nil {
		return 0, storage.MapError(err, "meta")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *BunRepository) DeleteOwner(ctx context.Context, owner Owner) (int, error) {
	res, err := r.conn(ctx).NewDelete().
		TableExpr("?", bun.Ident(r.table)).
		Where("owner_type = ?", owner.Type).
		Where("owner_id = ?", owner.ID).
		Exec(ctx)
	if err != nil {
		return 0, storage.MapError(err, "meta")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func metaFromRecord(record metaRecord) *Meta {
	return &Meta{
		ID:        record.ID,
		Key:       record.MetaKey,
		Owner:     Owner{Type: record.OwnerType, ID: record.OwnerID},
		Revision:  record.Revision,
		Value:     normalizeValue(json.RawMessage(record.Value)),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
