package inmemory

import (
	"context"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
)

// SlugTable holds categories or genres. Both share the Category row shape
// and are converted to T on the way out.
type SlugTable[T models.Category | models.Genre] struct {
	db   *db
	kind string
	rows func(*db) map[int64]*models.Category
}

func (t *SlugTable[T]) List(_ context.Context, search string, f filters.Filters) ([]T, int, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	rows := t.rows(t.db)
	items := make([]T, 0, len(rows))
	for _, id := range sortedIDs(rows) {
		row := rows[id]
		if search != "" && !containsFold(row.Name, search) {
			continue
		}
		items = append(items, T(*row))
	}
	out, total := page(items, f)
	return out, total, nil
}

func (t *SlugTable[T]) Get(_ context.Context, slug string) (*T, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	for _, row := range t.rows(t.db) {
		if row.Slug == slug {
			item := T(*row)
			return &item, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (t *SlugTable[T]) Insert(_ context.Context, name, slug string) (*T, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	rows := t.rows(t.db)
	for _, row := range rows {
		if row.Slug == slug {
			return nil, conflict(t.kind + "_slug_key")
		}
	}
	row := &models.Category{ID: t.db.next(t.kind), Name: name, Slug: slug}
	rows[row.ID] = row
	item := T(*row)
	return &item, nil
}

// Delete detaches the row from titles: categories are nulled out, genres
// are dropped from the title's genre list.
func (t *SlugTable[T]) Delete(_ context.Context, slug string) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	rows := t.rows(t.db)
	var id int64
	for rowID, row := range rows {
		if row.Slug == slug {
			id = rowID
			break
		}
	}
	if id == 0 {
		return storage.ErrNotFound
	}
	delete(rows, id)
	for _, title := range t.db.titles {
		if title.CategoryID != nil && *title.CategoryID == id && t.kind == "categories" {
			title.CategoryID = nil
		}
		if t.kind == "genres" {
			title.GenreIDs = removeID(title.GenreIDs, id)
		}
	}
	return nil
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (d *db) slugID(rows map[int64]*models.Category, slug string) (int64, bool) {
	for id, row := range rows {
		if row.Slug == slug {
			return id, true
		}
	}
	return 0, false
}
