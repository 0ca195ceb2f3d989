package locales

import (
	"context"
	"time"

	"github.com/goliatone/go-revisions/internal/identity"
	"github.com/goliatone/go-revisions/internal/storage"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type localeRecord struct {
	bun.BaseModel `bun:"table:i18n_locales"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Code      string    `bun:"code,notnull,unique"`
	Name      string    `bun:"name,notnull"`
	Enabled   bool      `bun:"enabled,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Schema creates the locale table.
func Schema() storage.SchemaStep {
	return storage.SchemaStep{
		Name: "locales",
		Create: func(ctx context.Context, db bun.IDB, tables storage.Tables) error {
			return storage.CreateTable(ctx, db, (*localeRecord)(nil), tables.Locales)
		},
	}
}

// BunRepository stores locales in the configured locale table.
type BunRepository struct {
	db     *bun.DB
	tables storage.Tables
	now    func() time.Time
}

var _ Repository = (*BunRepository)(nil)

func NewBunRepository(db *bun.DB, tables storage.Tables) *BunRepository {
	return &BunRepository{
		db:     db,
		tables: tables.Resolve(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *BunRepository) conn(ctx context.Context) bun.IDB {
	return storage.IDB(ctx, r.db)
}

func (r *BunRepository) Upsert(ctx context.Context, locale Locale) (*Locale, error) {
	code := NormalizeCode(locale.Code)
	if code == "" {
		return nil, ErrLocaleCodeRequired
	}
	name := locale.Name
	if name == "" {
		name = code
	}

	now := r.now()
	record := &localeRecord{
		ID:        identity.LocaleUUID(code),
		Code:      code,
		Name:      name,
		Enabled:   locale.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.conn(ctx).NewInsert().
		Model(record).
		ModelTableExpr("?", bun.Ident(r.tables.Locales)).
		On("CONFLICT (code) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("enabled = EXCLUDED.enabled").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, storage.MapError(err, "locale")
	}
	return r.Get(ctx, code)
}

func (r *BunRepository) Get(ctx context.Context, code string) (*Locale, error) {
	code = NormalizeCode(code)
	var rows []localeRecord
	err := r.conn(ctx).NewRaw(
		`SELECT id, code, name, enabled, created_at, updated_at FROM ? WHERE code = ?`,
		bun.Ident(r.tables.Locales), code,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, storage.MapError(err, "locale")
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Code: code}
	}
	locale := localeFromRecord(rows[0])
	return &locale, nil
}

func (r *BunRepository) List(ctx context.Context) ([]Locale, error) {
	return r.list(ctx, false)
}

func (r *BunRepository) ListEnabled(ctx context.Context) ([]Locale, error) {
	return r.list(ctx, true)
}

func (r *BunRepository) SetEnabled(ctx context.Context, code string, enabled bool) (*Locale, error) {
	code = NormalizeCode(code)
	res, err := r.conn(ctx).NewUpdate().
		TableExpr("?", bun.Ident(r.tables.Locales)).
		Set("enabled = ?", enabled).
		Set("updated_at = ?", r.now()).
		Where("code = ?", code).
		Exec(ctx)
	if err != nil {
		return nil, storage.MapError(err, "locale")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, &NotFoundError{Code: code}
	}
	return r.Get(ctx, code)
}

func (r *BunRepository) Delete(ctx context.Context, code string) error {
	code = NormalizeCode(code)
	res, err := r.conn(ctx).NewDelete().
		TableExpr("?", bun.Ident(r.tables.Locales)).
		Where("code = ?", code).
		Exec(ctx)
	if err != nil {
		return storage.MapError(err, "locale")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &NotFoundError{Code: code}
	}
	return nil
}

func (r *BunRepository) list(ctx context.Context, enabledOnly bool) ([]Locale, error) {
	query := `SELECT id, code, name, enabled, created_at, updated_at FROM ?`
	args := []any{bun.Ident(r.tables.Locales)}
	if enabledOnly {
		query += ` WHERE enabled = ?`
		args = append(args, true)
	}
	query += ` ORDER BY code`

	var rows []localeRecord
	if err := r.conn(ctx).NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		return nil, storage.MapError(err, "locale")
	}
	out := make([]Locale, 0, len(rows))
	for _, row := range rows {
		out = append(out, localeFromRecord(row))
	}
	return out, nil
}

func localeFromRecord(record localeRecord) Locale {
	return Locale{
		ID:        record.ID,
		Code:      record.Code,
		Name:      record.Name,
		Enabled:   record.Enabled,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
