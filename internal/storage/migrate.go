package storage

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// SchemaStep creates the tables one store owns.
type SchemaStep struct {
	Name   string
	Create func(ctx context.Context, db bun.IDB, tables Tables) error
}

// Migrate runs every step inside a single transaction.
func Migrate(ctx context.Context, db *bun.DB, tables Tables, steps ...SchemaStep) error {
	if db == nil {
		return fmt.Errorf("storage: migrate requires a database")
	}
	resolved := tables.Resolve()
	return NewTransactor(db).RunInTx(ctx, func(ctx context.Context) error {
		conn := IDB(ctx, db)
		for _, step := range steps {
			if step.Create == nil {
				continue
			}
			if err := step.Create(ctx, conn, resolved); err != nil {
				return fmt.Errorf("storage: migrate %s: %w", step.Name, err)
			}
		}
		return nil
	})
}

// CreateTable creates the table for model under name when it is missing.
func CreateTable(ctx context.Context, db bun.IDB, model any, name string) error {
	query := db.NewCreateTable().Model(model).IfNotExists()
	if name != "" {
		query = query.ModelTableExpr("?", bun.Ident(name))
	}
	_, err := query.Exec(ctx)
	return err
}
