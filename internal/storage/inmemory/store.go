// Package inmemory is a process-local store with the same constraints as
// the PostgreSQL schema: unique keys, foreign keys and cascades. Every
// mutation runs under one lock, so check-and-insert is atomic.
package inmemory

import (
	"sort"
	"strings"
	"sync"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
)

type titleRecord struct {
	ID          int64
	Name        string
	Year        int32
	Description string
	CategoryID  *int64
	GenreIDs    []int64
}

type db struct {
	mu  sync.RWMutex
	seq map[string]int64

	users      map[int64]*models.User
	categories map[int64]*models.Category
	genres     map[int64]*models.Category
	titles     map[int64]*titleRecord
	reviews    map[int64]*models.Review
	comments   map[int64]*models.Comment
}

type Storage struct {
	Categories *SlugTable[models.Category]
	Genres     *SlugTable[models.Genre]
	Titles     *TitleTable
	Reviews    *ReviewTable
	Comments   *CommentTable
	Users      *UserTable
}

func New() *Storage {
	d := &db{
		seq:        make(map[string]int64),
		users:      make(map[int64]*models.User),
		categories: make(map[int64]*models.Category),
		genres:     make(map[int64]*models.Category),
		titles:     make(map[int64]*titleRecord),
		reviews:    make(map[int64]*models.Review),
		comments:   make(map[int64]*models.Comment),
	}
	return &Storage{
		Categories: &SlugTable[models.Category]{db: d, kind: "categories", rows: func(d *db) map[int64]*models.Category { return d.categories }},
		Genres:     &SlugTable[models.Genre]{db: d, kind: "genres", rows: func(d *db) map[int64]*models.Category { return d.genres }},
		Titles:     &TitleTable{db: d},
		Reviews:    &ReviewTable{db: d},
		Comments:   &CommentTable{db: d},
		Users:      &UserTable{db: d},
	}
}

func (d *db) next(table string) int64 {
	d.seq[table]++
	return d.seq[table]
}

// conflict mirrors the constraint names of the SQL schema.
func conflict(constraint string) error {
	return &storage.ConstraintError{Err: storage.ErrConflict, Constraint: constraint}
}

func invalidRef(constraint string) error {
	return &storage.ConstraintError{Err: storage.ErrInvalidReference, Constraint: constraint}
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func page[T any](items []T, f filters.Filters) ([]T, int) {
	start, end := f.Window(len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, len(items)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// cascade helpers; callers hold the write lock.

func (d *db) deleteComment(id int64) {
	delete(d.comments, id)
}

func (d *db) deleteReview(id int64) {
	for cid, c := range d.comments {
		if c.ReviewID == id {
			d.deleteComment(cid)
		}
	}
	delete(d.reviews, id)
}

func (d *db) deleteTitle(id int64) {
	for rid, r := range d.reviews {
		if r.TitleID == id {
			d.deleteReview(rid)
		}
	}
	delete(d.titles, id)
}

func (d *db) deleteUser(id int64) {
	for rid, r := range d.reviews {
		if r.AuthorID == id {
			d.deleteReview(rid)
		}
	}
	for cid, c := range d.comments {
		if c.AuthorID == id {
			d.deleteComment(cid)
		}
	}
	delete(d.users, id)
}

func (d *db) username(id int64) string {
	if u, ok := d.users[id]; ok {
		return u.Username
	}
	return ""
}
