package inmemory

import (
	"cmp"
	"context"
	"sort"
	"strings"

	"yamdb/proj/internal/domain/fields"
	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
)

type TitleTable struct {
	db *db
}

func (t *TitleTable) List(_ context.Context, tf filters.TitleFilter, f filters.Filters) ([]models.Title, int, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	titles := make([]models.Title, 0, len(t.db.titles))
	for _, id := range sortedIDs(t.db.titles) {
		rec := t.db.titles[id]
		if !t.db.matches(rec, tf) {
			continue
		}
		titles = append(titles, t.db.view(rec))
	}
	sortTitles(titles, f)
	out, total := page(titles, f)
	return out, total, nil
}

func (t *TitleTable) Get(_ context.Context, id int64) (*models.Title, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	rec, ok := t.db.titles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	title := t.db.view(rec)
	return &title, nil
}

func (t *TitleTable) Insert(_ context.Context, p models.TitleParams) (*models.Title, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	rec := &titleRecord{}
	if err := t.db.apply(rec, p); err != nil {
		return nil, err
	}
	rec.ID = t.db.next("titles")
	t.db.titles[rec.ID] = rec
	title := t.db.view(rec)
	return &title, nil
}

func (t *TitleTable) Update(_ context.Context, id int64, p models.TitleParams) (*models.Title, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	rec, ok := t.db.titles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	updated := &titleRecord{ID: rec.ID}
	if err := t.db.apply(updated, p); err != nil {
		return nil, err
	}
	t.db.titles[id] = updated
	title := t.db.view(updated)
	return &title, nil
}

func (t *TitleTable) Delete(_ context.Context, id int64) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	if _, ok := t.db.titles[id]; !ok {
		return storage.ErrNotFound
	}
	t.db.deleteTitle(id)
	return nil
}

// apply resolves slugs and copies p into rec; rec is untouched on error.
func (d *db) apply(rec *titleRecord, p models.TitleParams) error {
	var categoryID *int64
	if p.Category != nil {
		id, ok := d.slugID(d.categories, *p.Category)
		if !ok {
			return invalidRef("category")
		}
		categoryID = &id
	}
	genreIDs := make([]int64, 0, len(p.Genres))
	seen := make(map[int64]bool, len(p.Genres))
	for _, slug := range p.Genres {
		id, ok := d.slugID(d.genres, slug)
		if !ok {
			return invalidRef("genre")
		}
		if !seen[id] {
			seen[id] = true
			genreIDs = append(genreIDs, id)
		}
	}
	rec.Name = p.Name
	rec.Year = p.Year
	rec.Description = p.Description
	rec.CategoryID = categoryID
	rec.GenreIDs = genreIDs
	return nil
}

func (d *db) matches(rec *titleRecord, tf filters.TitleFilter) bool {
	if tf.Name != "" && !containsFold(rec.Name, tf.Name) {
		return false
	}
	if tf.Year != 0 && rec.Year != tf.Year {
		return false
	}
	if tf.Category != "" {
		if rec.CategoryID == nil {
			return false
		}
		if c, ok := d.categories[*rec.CategoryID]; !ok || c.Slug != tf.Category {
			return false
		}
	}
	if tf.Genre != "" {
		found := false
		for _, id := range rec.GenreIDs {
			if g, ok := d.genres[id]; ok && g.Slug == tf.Genre {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (d *db) view(rec *titleRecord) models.Title {
	title := models.Title{
		ID:          rec.ID,
		Name:        rec.Name,
		Year:        rec.Year,
		Description: rec.Description,
		Rating:      d.rating(rec.ID),
		Genres:      make([]models.Genre, 0, len(rec.GenreIDs)),
	}
	if rec.CategoryID != nil {
		if c, ok := d.categories[*rec.CategoryID]; ok {
			category := *c
			title.Category = &category
		}
	}
	for _, id := range rec.GenreIDs {
		if g, ok := d.genres[id]; ok {
			title.Genres = append(title.Genres, models.Genre(*g))
		}
	}
	sort.Slice(title.Genres, func(i, j int) bool { return title.Genres[i].Slug < title.Genres[j].Slug })
	return title
}

func (d *db) rating(titleID int64) fields.Rating {
	var sum, n int
	for _, r := range d.reviews {
		if r.TitleID == titleID {
			sum += r.Score
			n++
		}
	}
	if n == 0 {
		return fields.Rating{}
	}
	return fields.NewRating(float64(sum) / float64(n))
}

func sortTitles(titles []models.Title, f filters.Filters) {
	column := f.SortColumn()
	desc := f.SortDirection() == filters.DescSort
	sort.SliceStable(titles, func(i, j int) bool {
		a, b := titles[i], titles[j]
		if column == "rating" && a.Rating.Valid != b.Rating.Valid {
			// unrated titles go last in both directions
			return a.Rating.Valid
		}
		c := compareTitles(a, b, column)
		if desc {
			c = -c
		}
		if c == 0 {
			return a.ID < b.ID
		}
		return c < 0
	})
}

func compareTitles(a, b models.Title, column string) int {
	switch column {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "year":
		return cmp.Compare(a.Year, b.Year)
	case "rating":
		return cmp.Compare(a.Rating.Value, b.Rating.Value)
	}
	return cmp.Compare(a.ID, b.ID)
}
