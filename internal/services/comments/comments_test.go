package comments

import (
	"context"
	"testing"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()
	_, err := store.Genres.Insert(ctx, "Drama", "drama")
	require.NoError(t, err)
	heat, err := store.Titles.Insert(ctx, models.TitleParams{Name: "Heat", Year: 1995, Genres: []string{"drama"}})
	require.NoError(t, err)
	other, err := store.Titles.Insert(ctx, models.TitleParams{Name: "Ronin", Year: 1998, Genres: []string{"drama"}})
	require.NoError(t, err)
	alice, err := store.Users.Insert(ctx, &models.User{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)
	review, err := store.Reviews.Insert(ctx, &models.Review{TitleID: heat.ID, AuthorID: alice.ID, Text: "good", Score: 8})
	require.NoError(t, err)

	svc := New(logger.Discard(), store.Comments, store.Reviews)

	comment, err := svc.Create(ctx, heat.ID, review.ID, alice, "agree")
	require.NoError(t, err)
	assert.Equal(t, "alice", comment.Author)
	assert.Equal(t, review.ID, comment.ReviewID)

	t.Run("review must belong to the title", func(t *testing.T) {
		_, err := svc.Create(ctx, other.ID, review.ID, alice, "agree")
		assert.ErrorIs(t, err, ErrReviewNotFound)
		_, _, err = svc.List(ctx, other.ID, review.ID, filters.Filters{})
		assert.ErrorIs(t, err, ErrReviewNotFound)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := svc.Create(ctx, heat.ID, review.ID, alice, "")
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("update", func(t *testing.T) {
		text := "changed my mind"
		updated, err := svc.Update(ctx, comment, &text)
		require.NoError(t, err)
		assert.Equal(t, text, updated.Text)
		assert.Equal(t, comment.PubDate, updated.PubDate)
	})

	t.Run("review delete cascades", func(t *testing.T) {
		require.NoError(t, store.Reviews.Delete(ctx, heat.ID, review.ID))
		_, err := store.Comments.Get(ctx, review.ID, comment.ID)
		assert.Error(t, err)
		_, err = svc.Get(ctx, heat.ID, review.ID, comment.ID)
		assert.ErrorIs(t, err, ErrReviewNotFound)
	})
}
