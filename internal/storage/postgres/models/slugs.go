package models

import (
	"context"
	"fmt"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
	"yamdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SlugModel stores the slug-keyed classifiers (categories and genres).
// table is fixed at construction and never comes from user input.
type SlugModel[T models.Category | models.Genre] struct {
	DB    *pgxpool.Pool
	table string
}

func (m *SlugModel[T]) List(ctx context.Context, search string, f filters.Filters) ([]T, int, error) {
	const where = `WHERE (name ILIKE '%' || $1 || '%' OR $1 = '')`
	var total int
	err := m.DB.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s %s`, m.table, where), search).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, _ := m.DB.Query(
		ctx,
		fmt.Sprintf(`SELECT id, name, slug FROM %s %s ORDER BY id ASC LIMIT $2 OFFSET $3`, m.table, where),
		search,
		f.Limit(),
		f.Offset(),
	)
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (m *SlugModel[T]) Get(ctx context.Context, slug string) (*T, error) {
	rows, _ := m.DB.Query(ctx, fmt.Sprintf(`SELECT id, name, slug FROM %s WHERE slug = $1`, m.table), slug)
	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &item, nil
}

func (m *SlugModel[T]) Insert(ctx context.Context, name, slug string) (*T, error) {
	rows, _ := m.DB.Query(
		ctx,
		fmt.Sprintf(`INSERT INTO %s (name, slug) VALUES ($1, $2) RETURNING id, name, slug`, m.table),
		name,
		slug,
	)
	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &item, nil
}

func (m *SlugModel[T]) Delete(ctx context.Context, slug string) error {
	status, err := m.DB.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE slug = $1`, m.table), slug)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
