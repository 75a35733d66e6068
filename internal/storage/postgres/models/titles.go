package models

import (
	"context"
	"errors"
	"fmt"

	"yamdb/proj/internal/domain/fields"
	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
	"yamdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TitleModel struct {
	DB *pgxpool.Pool
}

// titleSelect aggregates the rating with a LEFT JOIN so titles without
// reviews are kept with a NULL average.
const titleSelect = `
	SELECT count(*) OVER() AS count, t.id, t.name, t.year, t.description,
		avg(r.score)::float8 AS rating,
		c.id AS category_id, c.name AS category_name, c.slug AS category_slug
	FROM titles t
	LEFT JOIN reviews r ON r.title_id = t.id
	LEFT JOIN categories c ON c.id = t.category_id
`

type titleRow struct {
	Count        int           `db:"count"`
	ID           int64         `db:"id"`
	Name         string        `db:"name"`
	Year         int32         `db:"year"`
	Description  string        `db:"description"`
	Rating       fields.Rating `db:"rating"`
	CategoryID   *int64        `db:"category_id"`
	CategoryName *string       `db:"category_name"`
	CategorySlug *string       `db:"category_slug"`
}

func (r titleRow) title() models.Title {
	t := models.Title{
		ID:          r.ID,
		Name:        r.Name,
		Year:        r.Year,
		Description: r.Description,
		Rating:      r.Rating,
		Genres:      []models.Genre{},
	}
	if r.CategoryID != nil {
		t.Category = &models.Category{ID: *r.CategoryID, Name: *r.CategoryName, Slug: *r.CategorySlug}
	}
	return t
}

func (m *TitleModel) List(ctx context.Context, tf filters.TitleFilter, f filters.Filters) ([]models.Title, int, error) {
	query := fmt.Sprintf(titleSelect+`
	WHERE (t.name ILIKE '%%' || $1 || '%%' OR $1 = '')
	AND (t.year = $2 OR $2 = 0)
	AND (c.slug = $3 OR $3 = '')
	AND ($4 = '' OR EXISTS (
		SELECT 1 FROM titles_genres tg JOIN genres g ON g.id = tg.genre_id
		WHERE tg.title_id = t.id AND g.slug = $4
	))
	GROUP BY t.id, c.id
	ORDER BY %s %s NULLS LAST, t.id ASC
	LIMIT $5 OFFSET $6
	`, f.SortColumn(), f.SortDirection())
	rows, _ := m.DB.Query(ctx, query, tf.Name, tf.Year, tf.Category, tf.Genre, f.Limit(), f.Offset())
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[titleRow])
	if err != nil {
		return nil, 0, err
	}
	titles := make([]models.Title, 0, len(outputRows))
	for _, row := range outputRows {
		titles = append(titles, row.title())
	}
	if err := m.attachGenres(ctx, m.DB, titles); err != nil {
		return nil, 0, err
	}
	total := 0
	if len(outputRows) > 0 {
		total = outputRows[0].Count
	}
	return titles, total, nil
}

func (m *TitleModel) Get(ctx context.Context, id int64) (*models.Title, error) {
	return m.get(ctx, m.DB, id)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (m *TitleModel) get(ctx context.Context, q querier, id int64) (*models.Title, error) {
	rows, _ := q.Query(ctx, titleSelect+`WHERE t.id = $1 GROUP BY t.id, c.id`, id)
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[titleRow])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	titles := []models.Title{row.title()}
	if err := m.attachGenres(ctx, q, titles); err != nil {
		return nil, err
	}
	return &titles[0], nil
}

func (m *TitleModel) attachGenres(ctx context.Context, q querier, titles []models.Title) error {
	if len(titles) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(titles))
	byID := make(map[int64]int, len(titles))
	for i, t := range titles {
		ids = append(ids, t.ID)
		byID[t.ID] = i
	}
	type genreRow struct {
		TitleID int64 `db:"title_id"`
		models.Genre
	}
	rows, _ := q.Query(ctx, `
		SELECT tg.title_id, g.id, g.name, g.slug
		FROM titles_genres tg JOIN genres g ON g.id = tg.genre_id
		WHERE tg.title_id = ANY($1)
		ORDER BY g.slug`,
		ids,
	)
	genres, err := pgx.CollectRows(rows, pgx.RowToStructByName[genreRow])
	if err != nil {
		return err
	}
	for _, g := range genres {
		i := byID[g.TitleID]
		titles[i].Genres = append(titles[i].Genres, g.Genre)
	}
	return nil
}

func (m *TitleModel) Insert(ctx context.Context, p models.TitleParams) (*models.Title, error) {
	var title *models.Title
	err := pgx.BeginFunc(ctx, m.DB, func(tx pgx.Tx) error {
		categoryID, err := resolveCategory(ctx, tx, p.Category)
		if err != nil {
			return err
		}
		var id int64
		err = tx.QueryRow(
			ctx,
			`INSERT INTO titles (name, year, description, category_id) VALUES ($1, $2, $3, $4) RETURNING id`,
			p.Name,
			p.Year,
			p.Description,
			categoryID,
		).Scan(&id)
		if err != nil {
			return postgres.MapError(err)
		}
		if err := replaceGenres(ctx, tx, id, p.Genres); err != nil {
			return err
		}
		title, err = m.get(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return title, nil
}

func (m *TitleModel) Update(ctx context.Context, id int64, p models.TitleParams) (*models.Title, error) {
	var title *models.Title
	err := pgx.BeginFunc(ctx, m.DB, func(tx pgx.Tx) error {
		categoryID, err := resolveCategory(ctx, tx, p.Category)
		if err != nil {
			return err
		}
		status, err := tx.Exec(
			ctx,
			`UPDATE titles SET name = $1, year = $2, description = $3, category_id = $4 WHERE id = $5`,
			p.Name,
			p.Year,
			p.Description,
			categoryID,
			id,
		)
		if err != nil {
			return postgres.MapError(err)
		}
		if status.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
		if err := replaceGenres(ctx, tx, id, p.Genres); err != nil {
			return err
		}
		title, err = m.get(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return title, nil
}

func (m *TitleModel) Delete(ctx context.Context, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM titles WHERE id = $1", id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func resolveCategory(ctx context.Context, tx pgx.Tx, slug *string) (*int64, error) {
	if slug == nil {
		return nil, nil
	}
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM categories WHERE slug = $1`, *slug).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &storage.ConstraintError{Err: storage.ErrInvalidReference, Constraint: "category"}
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func replaceGenres(ctx context.Context, tx pgx.Tx, titleID int64, slugs []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM titles_genres WHERE title_id = $1`, titleID); err != nil {
		return err
	}
	if len(slugs) == 0 {
		return nil
	}
	status, err := tx.Exec(ctx, `
		INSERT INTO titles_genres (title_id, genre_id)
		SELECT $1, id FROM genres WHERE slug = ANY($2)
		ON CONFLICT DO NOTHING`,
		titleID,
		slugs,
	)
	if err != nil {
		return postgres.MapError(err)
	}
	if int(status.RowsAffected()) != countDistinct(slugs) {
		return &storage.ConstraintError{Err: storage.ErrInvalidReference, Constraint: "genre"}
	}
	return nil
}

func countDistinct(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
