//go:build integration

package models

import (
	"context"
	"sync"
	"testing"
	"time"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
	"yamdb/proj/internal/storage/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var everything = filters.Filters{Page: 1, PageSize: filters.MaxPageSize}

// setupDB starts a throwaway PostgreSQL and applies the migrations.
func setupDB(t *testing.T) *postgres.Storage {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("yamdb"),
		tcpostgres.WithUsername("yamdb"),
		tcpostgres.WithPassword("yamdb"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminating container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := postgres.New(ctx, dsn, 10, time.Minute)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx, "up"))
	return db
}

type seed struct {
	m      *Models
	alice  *models.User
	bob    *models.User
	title  *models.Title
	review *models.Review
}

func seedDB(t *testing.T, db *postgres.Storage) seed {
	t.Helper()
	ctx := context.Background()
	m := New(db)

	alice, err := m.Users.Insert(ctx, &models.User{Username: "alice", Email: "alice@x.com", Role: models.RoleUser})
	require.NoError(t, err)
	bob, err := m.Users.Insert(ctx, &models.User{Username: "bob", Email: "bob@x.com", Role: models.RoleUser})
	require.NoError(t, err)
	_, err = m.Categories.Insert(ctx, "Movie", "movie")
	require.NoError(t, err)
	_, err = m.Genres.Insert(ctx, "Drama", "drama")
	require.NoError(t, err)
	_, err = m.Genres.Insert(ctx, "Comedy", "comedy")
	require.NoError(t, err)
	category := "movie"
	title, err := m.Titles.Insert(ctx, models.TitleParams{
		Name: "Heat", Year: 1995, Category: &category, Genres: []string{"drama", "comedy"},
	})
	require.NoError(t, err)
	review, err := m.Reviews.Insert(ctx, &models.Review{TitleID: title.ID, AuthorID: alice.ID, Text: "good", Score: 8})
	require.NoError(t, err)
	return seed{m: m, alice: alice, bob: bob, title: title, review: review}
}

func TestPostgresStorage(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	s := seedDB(t, db)

	t.Run("unique user keys", func(t *testing.T) {
		_, err := s.m.Users.Insert(ctx, &models.User{Username: "alice", Email: "other@x.com", Role: models.RoleUser})
		require.ErrorIs(t, err, storage.ErrConflict)
		assert.Equal(t, "users_username_key", storage.Constraint(err))

		_, err = s.m.Users.Insert(ctx, &models.User{Username: "carol", Email: "bob@x.com", Role: models.RoleUser})
		require.ErrorIs(t, err, storage.ErrConflict)
		assert.Equal(t, "users_email_key", storage.Constraint(err))
	})

	t.Run("confirmation code is per user", func(t *testing.T) {
		require.NoError(t, s.m.Users.SetConfirmationCode(ctx, s.alice.ID, []byte("hash")))
		bob, err := s.m.Users.GetByID(ctx, s.bob.ID)
		require.NoError(t, err)
		assert.Empty(t, bob.ConfirmationCode)
		alice, err := s.m.Users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []byte("hash"), alice.ConfirmationCode)
	})

	t.Run("title with genres and rating", func(t *testing.T) {
		assert.Len(t, s.title.Genres, 2)
		require.NotNil(t, s.title.Category)
		_, err := s.m.Reviews.Insert(ctx, &models.Review{TitleID: s.title.ID, AuthorID: s.bob.ID, Text: "ok", Score: 5})
		require.NoError(t, err)
		title, err := s.m.Titles.Get(ctx, s.title.ID)
		require.NoError(t, err)
		require.True(t, title.Rating.Valid)
		assert.InDelta(t, 6.5, title.Rating.Value, 1e-9)

		list, total, err := s.m.Titles.List(ctx, filters.TitleFilter{Genre: "comedy", Name: "hea"}, everything)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "Heat", list[0].Name)
	})

	t.Run("unknown genre is rejected", func(t *testing.T) {
		_, err := s.m.Titles.Insert(ctx, models.TitleParams{Name: "X", Year: 2000, Genres: []string{"western"}})
		require.ErrorIs(t, err, storage.ErrInvalidReference)
		assert.Equal(t, "genre", storage.Constraint(err))
	})

	t.Run("review constraints", func(t *testing.T) {
		_, err := s.m.Reviews.Insert(ctx, &models.Review{TitleID: s.title.ID, AuthorID: s.alice.ID, Text: "again", Score: 3})
		require.ErrorIs(t, err, storage.ErrConflict)
		_, err = s.m.Reviews.Insert(ctx, &models.Review{TitleID: 999, AuthorID: s.alice.ID, Text: "?", Score: 3})
		require.ErrorIs(t, err, storage.ErrInvalidReference)
	})

	t.Run("review delete cascades to comments", func(t *testing.T) {
		comment, err := s.m.Comments.Insert(ctx, &models.Comment{ReviewID: s.review.ID, AuthorID: s.bob.ID, Text: "no"})
		require.NoError(t, err)
		assert.Equal(t, "bob", comment.Author)
		require.NoError(t, s.m.Reviews.Delete(ctx, s.title.ID, s.review.ID))
		_, err = s.m.Comments.Get(ctx, s.review.ID, comment.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("category delete nulls titles", func(t *testing.T) {
		require.NoError(t, s.m.Categories.Delete(ctx, "movie"))
		title, err := s.m.Titles.Get(ctx, s.title.ID)
		require.NoError(t, err)
		assert.Nil(t, title.Category)
	})

	t.Run("user delete cascades", func(t *testing.T) {
		require.NoError(t, s.m.Users.Delete(ctx, "bob"))
		_, total, err := s.m.Reviews.List(ctx, s.title.ID, everything)
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestConcurrentDuplicateReview(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	s := seedDB(t, db)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		inserted  int
		conflicts int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.m.Reviews.Insert(ctx, &models.Review{TitleID: s.title.ID, AuthorID: s.bob.ID, Text: "race", Score: 7})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				inserted++
			} else if assert.ErrorIs(t, err, storage.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 7, conflicts)
}

func TestBulkLoad(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	loaded, err := db.BulkLoad(ctx, []storage.Batch{
		{Table: "users", Columns: []string{"id", "username", "email", "role", "bio"}, Serial: true, Rows: [][]any{
			{int64(100), "imported", "imported@x.com", "user", ""},
		}},
		{Table: "genres", Columns: []string{"id", "name", "slug"}, Serial: true, Rows: [][]any{
			{int64(7), "Drama", "drama"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded["users"])

	m := New(db)
	user, err := m.Users.Insert(ctx, &models.User{Username: "fresh", Email: "fresh@x.com", Role: models.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, int64(101), user.ID)

	_, err = db.BulkLoad(ctx, []storage.Batch{
		{Table: "categories", Columns: []string{"id", "name", "slug"}, Serial: true, Rows: [][]any{{int64(1), "Movie", "movie"}}},
		{Table: "genres", Columns: []string{"id", "name", "slug"}, Serial: true, Rows: [][]any{{int64(8), "Dup", "drama"}}},
	})
	require.ErrorIs(t, err, storage.ErrConflict)
	_, err = m.Categories.Get(ctx, "movie")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
