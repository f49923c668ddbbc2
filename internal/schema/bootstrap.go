// Package schema creates the blog tables and seeds reference rows.
package schema

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog-store/internal/storage"
)

type index struct {
	name   string
	model  any
	column string
}

var indexes = []index{
	{name: "idx_posts_author", model: (*Post)(nil), column: "author"},
	{name: "idx_posts_created_at", model: (*Post)(nil), column: "created_at DESC"},
	{name: "idx_posts_category_id", model: (*Post)(nil), column: "category_id"},
	{name: "idx_users_username", model: (*User)(nil), column: "username"},
}

// Ensure creates tables and indexes that do not exist yet and seeds the
// categories table when it is empty. It is safe to call on every start and
// from several processes at once: every statement is guarded by IF NOT EXISTS
// or ON CONFLICT, and a creation race lost to another instance is ignored.
func Ensure(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return fmt.Errorf("ensure schema: database handle is nil")
	}

	if err := createTables(ctx, db); err != nil {
		return err
	}
	if err := createIndexes(ctx, db); err != nil {
		return err
	}
	return seedCategories(ctx, db)
}

func createTables(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*Category)(nil)).
		IfNotExists().
		Exec(ctx)
	if ignoreRace(err) != nil {
		return fmt.Errorf("create table categories: %w", err)
	}

	_, err = db.NewCreateTable().
		Model((*Post)(nil)).
		IfNotExists().
		ForeignKey(`("category_id") REFERENCES "categories" ("id")`).
		Exec(ctx)
	if ignoreRace(err) != nil {
		return fmt.Errorf("create table posts: %w", err)
	}

	_, err = db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	if ignoreRace(err) != nil {
		return fmt.Errorf("create table users: %w", err)
	}
	return nil
}

func createIndexes(ctx context.Context, db *bun.DB) error {
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			IfNotExists().
			ColumnExpr(idx.column).
			Exec(ctx)
		if ignoreRace(err) != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

func seedCategories(ctx context.Context, db *bun.DB) error {
	count, err := db.NewSelect().Model((*Category)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	seeds := make([]Category, len(Seeds))
	copy(seeds, Seeds)

	_, err = db.NewInsert().
		Model(&seeds).
		On("CONFLICT (id) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if ignoreRace(err) != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}

// ignoreRace drops unique violations raised when a concurrent instance
// created the same catalog entry or seed first.
func ignoreRace(err error) error {
	if storage.IsUniqueViolation(err) {
		return nil
	}
	return err
}
