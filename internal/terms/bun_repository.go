package terms

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-revisions/internal/identifier"
	"github.com/goliatone/go-revisions/internal/identity"
	"github.com/goliatone/go-revisions/internal/storage"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type termRecord struct {
	bun.BaseModel `bun:"table:i18n_terms"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	Key         string    `bun:"key,notnull,unique"`
	Description string    `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type definitionRecord struct {
	bun.BaseModel `bun:"table:i18n_definitions"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	TermID    uuid.UUID `bun:"term_id,notnull,type:uuid,unique:term_locale"`
	Locale    string    `bun:"locale,notnull,unique:term_locale"`
	Content   string    `bun:"content,type:text"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type entryRow struct {
	TermID      uuid.UUID `bun:"term_id"`
	Key         string    `bun:"key"`
	Description string    `bun:"description"`
	Locale      string    `bun:"locale"`
	Content     string    `bun:"content"`
}

// Schema creates the term and definition tables.
func Schema() storage.SchemaStep {
	return storage.SchemaStep{
		Name: "terms",
		Create: func(ctx context.Context, db bun.IDB, tables storage.Tables) error {
			if err := storage.CreateTable(ctx, db, (*termRecord)(nil), tables.Terms); err != nil {
				return err
			}
			return storage.CreateTable(ctx, db, (*definitionRecord)(nil), tables.Definitions)
		},
	}
}

// BunRepository stores terms in the configured term and definition tables.
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

func (r *BunRepository) UpsertTerm(ctx context.Context, key, description string) (*Term, error) {
	now := r.now()
	record := &termRecord{
		ID:          identity.TermUUID(key),
		Key:         key,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := r.conn(ctx).NewInsert().
		Model(record).
		ModelTableExpr("?", bun.Ident(r.tables.Terms)).
		On(`CONFLICT ("key") DO UPDATE`).
		Set("description = EXCLUDED.description").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, storage.MapError(err, "term")
	}
	return r.GetByKey(ctx, key)
}

func (r *BunRepository) UpsertDefinition(ctx context.Context, termID uuid.UUID, locale string, content json.RawMessage) (*Definition, error) {
	now := r.now()
	record := &definitionRecord{
		ID:        identity.DefinitionUUID(termID, locale),
		TermID:    termID,
		Locale:    locale,
		Content:   string(normalizeContent(content)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.conn(ctx).NewInsert().
		Model(record).
		ModelTableExpr("?", bun.Ident(r.tables.Definitions)).
		On("CONFLICT (term_id, locale) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, storage.MapError(err, "definition")
	}

	var rows []definitionRecord
	err = r.conn(ctx).NewRaw(
		`SELECT id, term_id, locale, content, created_at, updated_at FROM ? WHERE term_id = ? AND locale = ?`,
		bun.Ident(r.tables.Definitions), termID, locale,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, storage.MapError(err, "definition")
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Key: termID.String(), Locale: locale}
	}
	return definitionFromRecord(rows[0]), nil
}

func (r *BunRepository) GetByKey(ctx context.Context, key string) (*Term, error) {
	var rows []termRecord
	err := r.conn(ctx).NewRaw(
		`SELECT id, "key", description, created_at, updated_at FROM ? WHERE "key" = ?`,
		bun.Ident(r.tables.Terms), key,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, storage.MapError(err, "term")
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Key: key}
	}
	return termFromRecord(rows[0]), nil
}

func (r *BunRepository) Translate(ctx context.Context, key, locale string) (*Entry, error) {
	var rows []entryRow
	err := r.conn(ctx).NewRaw(
		`SELECT t.id AS term_id, t."key", t.description, d.locale, d.content
		FROM ? AS t JOIN ? AS d ON d.term_id = t.id
		WHERE t."key" = ? AND d.locale = ?`,
		bun.Ident(r.tables.Terms), bun.Ident(r.tables.Definitions), key, locale,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, storage.MapError(err, "term")
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Key: key, Locale: locale}
	}
	entry := entryFromRow(rows[0])
	return &entry, nil
}

func (r *BunRepository) ListByPrefix(ctx context.Context, prefix, locale string) ([]Entry, error) {
	var rows []entryRow
	err := r.conn(ctx).NewRaw(
		`SELECT t.id AS term_id, t."key", t.description, d.locale, d.content
		FROM ? AS t JOIN ? AS d ON d.term_id = t.id
		WHERE t."key" LIKE ? ESCAPE '\' AND d.locale = ?
		ORDER BY t."key"`,
		bun.Ident(r.tables.Terms), bun.Ident(r.tables.Definitions), identifier.LikePrefix(prefix), locale,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, storage.MapError(err, "term")
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, entryFromRow(row))
	}
	return out, nil
}

func (r *BunRepository) ListTermsByPrefix(ctx context.Context, prefix string) ([]*Term, error) {
	var rows []termRecord
	err := r.conn(ctx).NewRaw(
		`SELECT id, "key", description, created_at, updated_at FROM ? WHERE "key" LIKE ? ESCAPE '\' ORDER BY "key"`,
		bun.Ident(r.tables.Terms), identifier.LikePrefix(prefix),
	).Scan(ctx, &rows)
	if err != nil {
		return nil, storage.MapError(err, "term")
	}
	out := make([]*Term, 0, len(rows))
	for _, row := range rows {
		out = append(out, termFromRecord(row))
	}
	return out, nil
}

// DeleteByPrefix removes the matching terms together with their definitions.
func (r *BunRepository) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	pattern := identifier.LikePrefix(prefix)
	removed := 0
	err := storage.NewTransactor(r.db).RunInTx(ctx, func(ctx context.Context) error {
		conn := r.conn(ctx)
		if _, err := conn.NewDelete().
			TableExpr("?", bun.Ident(r.tables.Definitions)).
			Where(`term_id IN (SELECT id FROM ? WHERE "key" LIKE ? ESCAPE '\')`, bun.Ident(r.tables.Terms), pattern).
			Exec(ctx); err != nil {
			return err
		}
		res, err := conn.NewDelete().
			TableExpr("?", bun.Ident(r.tables.Terms)).
			Where(`"key" LIKE ? ESCAPE '\'`, pattern).
			Exec(ctx)
		if err != nil {
			return err
		}
		removed = rowsAffected(res)
		return nil
	})
	if err != nil {
		return 0, storage.MapError(err, "term")
	}
	return removed, nil
}

func (r *BunRepository) DeleteKeys(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	removed := 0
	err := storage.NewTransactor(r.db).RunInTx(ctx, func(ctx context.Context) error {
		conn := r.conn(ctx)
		if _, err := conn.NewDelete().
			TableExpr("?", bun.Ident(r.tables.Definitions)).
			Where(`term_id IN (SELECT id FROM ? WHERE "key" IN (?))`, bun.Ident(r.tables.Terms), bun.In(keys)).
			Exec(ctx); err != nil {
			return err
		}
		res, err := conn.NewDelete().
			TableExpr("?", bun.Ident(r.tables.Terms)).
			Where(`"key" IN (?)`, bun.In(keys)).
			Exec(ctx)
		if err != nil {
			return err
		}
		removed = rowsAffected(res)
		return nil
	})
	if err != nil {
		return 0, storage.MapError(err, "term")
	}
	return removed, nil
}

type affectedResult interface {
	RowsAffected() (int64, error)
}

func rowsAffected(res affectedResult) int {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}

func termFromRecord(record termRecord) *Term {
	return &Term{
		ID:          record.ID,
		Key:         record.Key,
		Description: record.Description,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func definitionFromRecord(record definitionRecord) *Definition {
	return &Definition{
		ID:        record.ID,
		TermID:    record.TermID,
		Locale:    record.Locale,
		Content:   normalizeContent(json.RawMessage(record.Content)),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func entryFromRow(row entryRow) Entry {
	return Entry{
		TermID:      row.TermID,
		Key:         row.Key,
		Description: row.Description,
		Locale:      row.Locale,
		Content:     normalizeContent(json.RawMessage(row.Content)),
	}
}
