package titles

import (
	"context"
	"testing"
	"time"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/rules"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func setup(t *testing.T) (*TitleService, *inmemory.Storage) {
	t.Helper()
	ctx := context.Background()
	store := inmemory.New()
	_, err := store.Categories.Insert(ctx, "Movie", "movie")
	require.NoError(t, err)
	for _, slug := range []string{"drama", "comedy"} {
		_, err := store.Genres.Insert(ctx, slug, slug)
		require.NoError(t, err)
	}
	return New(logger.Discard(), store.Titles), store
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	title, err := svc.Create(ctx, models.TitleParams{
		Name:     "Heat",
		Year:     1995,
		Category: ptr("movie"),
		Genres:   []string{"drama", "comedy"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Heat", title.Name)
	assert.False(t, title.Rating.Valid)
	require.NotNil(t, title.Category)
	assert.Equal(t, "movie", title.Category.Slug)
	require.Len(t, title.Genres, 2)
	assert.Equal(t, "comedy", title.Genres[0].Slug)

	tests := []struct {
		name  string
		p     models.TitleParams
		field string
	}{
		{"future year", models.TitleParams{Name: "x", Year: int32(time.Now().Year() + 1), Genres: []string{"drama"}}, "year"},
		{"blank name", models.TitleParams{Name: " ", Year: 2000, Genres: []string{"drama"}}, "name"},
		{"no genres", models.TitleParams{Name: "x", Year: 2000}, "genre"},
		{"unknown genre", models.TitleParams{Name: "x", Year: 2000, Genres: []string{"western"}}, "genre"},
		{"unknown category", models.TitleParams{Name: "x", Year: 2000, Category: ptr("book"), Genres: []string{"drama"}}, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.p)
			var vErr *rules.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	_, err = svc.Create(ctx, models.TitleParams{Name: "Now", Year: int32(time.Now().Year()), Genres: []string{"drama"}})
	assert.NoError(t, err)
}

func TestUpdatePartial(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	title, err := svc.Create(ctx, models.TitleParams{
		Name: "Heat", Year: 1995, Description: "crime", Category: ptr("movie"), Genres: []string{"drama"},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, title.ID, TitlePatch{Year: ptr(int32(1996))})
	require.NoError(t, err)
	assert.Equal(t, "Heat", updated.Name)
	assert.Equal(t, int32(1996), updated.Year)
	assert.Equal(t, "crime", updated.Description)
	require.NotNil(t, updated.Category)
	require.Len(t, updated.Genres, 1)

	updated, err = svc.Update(ctx, title.ID, TitlePatch{Genres: []string{"comedy", "drama"}})
	require.NoError(t, err)
	assert.Len(t, updated.Genres, 2)

	_, err = svc.Update(ctx, title.ID, TitlePatch{Year: ptr(int32(time.Now().Year() + 1))})
	var vErr *rules.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "year", vErr.Field)

	_, err = svc.Update(ctx, 999, TitlePatch{})
	assert.ErrorIs(t, err, ErrTitleNotFound)
}

func TestRatingAndCascades(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	rated, err := svc.Create(ctx, models.TitleParams{Name: "Rated", Year: 2000, Category: ptr("movie"), Genres: []string{"drama"}})
	require.NoError(t, err)
	unrated, err := svc.Create(ctx, models.TitleParams{Name: "Unrated", Year: 2001, Category: ptr("movie"), Genres: []string{"comedy"}})
	require.NoError(t, err)

	for i, score := range []int{7, 9} {
		author, err := store.Users.Insert(ctx, &models.User{Username: "u" + string(rune('a'+i)), Email: string(rune('a'+i)) + "@x.com"})
		require.NoError(t, err)
		_, err = store.Reviews.Insert(ctx, &models.Review{TitleID: rated.ID, AuthorID: author.ID, Text: "t", Score: score})
		require.NoError(t, err)
	}

	got, err := svc.Get(ctx, rated.ID)
	require.NoError(t, err)
	assert.True(t, got.Rating.Valid)
	assert.InDelta(t, 8.0, got.Rating.Value, 1e-9)

	got, err = svc.Get(ctx, unrated.ID)
	require.NoError(t, err)
	assert.False(t, got.Rating.Valid)

	list, meta, err := svc.List(ctx, filters.TitleFilter{}, filters.Filters{Sort: "-rating"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, rated.ID, list[0].ID)
	assert.Equal(t, 2, meta.TotalRecords)

	list, _, err = svc.List(ctx, filters.TitleFilter{Genre: "comedy"}, filters.Filters{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, unrated.ID, list[0].ID)

	_, _, err = svc.List(ctx, filters.TitleFilter{}, filters.Filters{Sort: "password"})
	assert.Error(t, err)

	require.NoError(t, store.Categories.Delete(ctx, "movie"))
	got, err = svc.Get(ctx, rated.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Category)

	require.NoError(t, svc.Delete(ctx, rated.ID))
	reviews, total, err := store.Reviews.List(ctx, rated.ID, filters.Filters{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, reviews)
	assert.Zero(t, total)
	assert.ErrorIs(t, svc.Delete(ctx, rated.ID), ErrTitleNotFound)
}
