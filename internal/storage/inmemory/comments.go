package inmemory

import (
	"context"
	"time"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
)

type CommentTable struct {
	db *db
}

func (t *CommentTable) view(c *models.Comment) models.Comment {
	out := *c
	out.Author = t.db.username(c.AuthorID)
	return out
}

func (t *CommentTable) List(_ context.Context, reviewID int64, f filters.Filters) ([]models.Comment, int, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	comments := make([]models.Comment, 0)
	for _, id := range sortedIDs(t.db.comments) {
		if c := t.db.comments[id]; c.ReviewID == reviewID {
			comments = append(comments, t.view(c))
		}
	}
	out, total := page(comments, f)
	return out, total, nil
}

func (t *CommentTable) Get(_ context.Context, reviewID, id int64) (*models.Comment, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	c, ok := t.db.comments[id]
	if !ok || c.ReviewID != reviewID {
		return nil, storage.ErrNotFound
	}
	comment := t.view(c)
	return &comment, nil
}

func (t *CommentTable) Insert(_ context.Context, comment *models.Comment) (*models.Comment, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	if _, ok := t.db.reviews[comment.ReviewID]; !ok {
		return nil, invalidRef("comments_review_id_fkey")
	}
	if _, ok := t.db.users[comment.AuthorID]; !ok {
		return nil, invalidRef("comments_author_id_fkey")
	}
	c := &models.Comment{
		ID:       t.db.next("comments"),
		ReviewID: comment.ReviewID,
		AuthorID: comment.AuthorID,
		Text:     comment.Text,
		PubDate:  time.Now().UTC(),
	}
	t.db.comments[c.ID] = c
	inserted := t.view(c)
	return &inserted, nil
}

func (t *CommentTable) Update(_ context.Context, comment *models.Comment) (*models.Comment, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	c, ok := t.db.comments[comment.ID]
	if !ok || c.ReviewID != comment.ReviewID {
		return nil, storage.ErrNotFound
	}
	c.Text = comment.Text
	updated := t.view(c)
	return &updated, nil
}

func (t *CommentTable) Delete(_ context.Context, reviewID, id int64) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	c, ok := t.db.comments[id]
	if !ok || c.ReviewID != reviewID {
		return storage.ErrNotFound
	}
	t.db.deleteComment(id)
	return nil
}
