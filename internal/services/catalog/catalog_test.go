package catalog

import (
	"context"
	"testing"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/rules"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories(t *testing.T) {
	ctx := context.Background()
	svc := New[models.Category](logger.Discard(), inmemory.New().Categories, "category")

	created, err := svc.Create(ctx, "Movie", "movie")
	require.NoError(t, err)
	assert.Equal(t, "movie", created.Slug)

	_, err = svc.Create(ctx, "Another movie", "movie")
	assert.ErrorIs(t, err, ErrSlugTaken)

	var vErr *rules.ValidationError
	_, err = svc.Create(ctx, "Bad", "bad slug")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "slug", vErr.Field)

	_, err = svc.Create(ctx, "   ", "blank")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)

	_, err = svc.Create(ctx, "Book", "book")
	require.NoError(t, err)

	items, meta, err := svc.List(ctx, "", filters.Filters{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, meta.TotalRecords)
	assert.Equal(t, 1, meta.CurrentPage)

	items, _, err = svc.List(ctx, "BOO", filters.Filters{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "book", items[0].Slug)

	require.NoError(t, svc.Delete(ctx, "book"))
	assert.ErrorIs(t, svc.Delete(ctx, "book"), ErrNotFound)
}

func TestGenresPaging(t *testing.T) {
	ctx := context.Background()
	svc := New[models.Genre](logger.Discard(), inmemory.New().Genres, "genre")
	for _, slug := range []string{"drama", "comedy", "horror"} {
		_, err := svc.Create(ctx, slug, slug)
		require.NoError(t, err)
	}
	items, meta, err := svc.List(ctx, "", filters.Filters{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "horror", items[0].Slug)
	assert.Equal(t, 2, meta.LastPage)
}
