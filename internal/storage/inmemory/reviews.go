package inmemory

import (
	"context"
	"time"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/rules"
	"yamdb/proj/internal/storage"
)

type ReviewTable struct {
	db *db
}

func (t *ReviewTable) view(r *models.Review) models.Review {
	out := *r
	out.Author = t.db.username(r.AuthorID)
	return out
}

func (t *ReviewTable) List(_ context.Context, titleID int64, f filters.Filters) ([]models.Review, int, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	reviews := make([]models.Review, 0)
	for _, id := range sortedIDs(t.db.reviews) {
		if r := t.db.reviews[id]; r.TitleID == titleID {
			reviews = append(reviews, t.view(r))
		}
	}
	out, total := page(reviews, f)
	return out, total, nil
}

func (t *ReviewTable) Get(_ context.Context, titleID, id int64) (*models.Review, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	r, ok := t.db.reviews[id]
	if !ok || r.TitleID != titleID {
		return nil, storage.ErrNotFound
	}
	review := t.view(r)
	return &review, nil
}

func (t *ReviewTable) Exists(_ context.Context, titleID, authorID int64) (bool, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	return t.db.reviewExists(titleID, authorID), nil
}

func (d *db) reviewExists(titleID, authorID int64) bool {
	for _, r := range d.reviews {
		if r.TitleID == titleID && r.AuthorID == authorID {
			return true
		}
	}
	return false
}

// Insert checks the (author, title) key and inserts under the same lock.
func (t *ReviewTable) Insert(_ context.Context, review *models.Review) (*models.Review, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	if _, ok := t.db.titles[review.TitleID]; !ok {
		return nil, invalidRef("reviews_title_id_fkey")
	}
	if _, ok := t.db.users[review.AuthorID]; !ok {
		return nil, invalidRef("reviews_author_id_fkey")
	}
	if rules.ValidateScore(review.Score) != nil {
		return nil, &storage.ConstraintError{Err: storage.ErrCheckViolation, Constraint: "reviews_score_check"}
	}
	if t.db.reviewExists(review.TitleID, review.AuthorID) {
		return nil, conflict("reviews_title_author_key")
	}
	r := &models.Review{
		ID:       t.db.next("reviews"),
		TitleID:  review.TitleID,
		AuthorID: review.AuthorID,
		Text:     review.Text,
		Score:    review.Score,
		PubDate:  time.Now().UTC(),
	}
	t.db.reviews[r.ID] = r
	inserted := t.view(r)
	return &inserted, nil
}

func (t *ReviewTable) Update(_ context.Context, review *models.Review) (*models.Review, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	r, ok := t.db.reviews[review.ID]
	if !ok || r.TitleID != review.TitleID {
		return nil, storage.ErrNotFound
	}
	if rules.ValidateScore(review.Score) != nil {
		return nil, &storage.ConstraintError{Err: storage.ErrCheckViolation, Constraint: "reviews_score_check"}
	}
	r.Text = review.Text
	r.Score = review.Score
	updated := t.view(r)
	return &updated, nil
}

func (t *ReviewTable) Delete(_ context.Context, titleID, id int64) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	r, ok := t.db.reviews[id]
	if !ok || r.TitleID != titleID {
		return storage.ErrNotFound
	}
	t.db.deleteReview(id)
	return nil
}
