// Package catalog manages the slug-keyed classifiers of titles:
// categories and genres.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/rules"
	"yamdb/proj/internal/storage"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrSlugTaken = &rules.ValidationError{Field: "slug", Message: "slug is already taken"}
)

type Storage[T models.Category | models.Genre] interface {
	List(ctx context.Context, search string, f filters.Filters) ([]T, int, error)
	Get(ctx context.Context, slug string) (*T, error)
	Insert(ctx context.Context, name, slug string) (*T, error)
	Delete(ctx context.Context, slug string) error
}

type Service[T models.Category | models.Genre] struct {
	log     *slog.Logger
	storage Storage[T]
	kind    string
}

// New builds a service for one classifier; kind ("category", "genre")
// only shows up in logs.
func New[T models.Category | models.Genre](log *slog.Logger, storage Storage[T], kind string) *Service[T] {
	return &Service[T]{
		log:     log,
		storage: storage,
		kind:    kind,
	}
}

func (s *Service[T]) List(ctx context.Context, search string, f filters.Filters) ([]T, filters.Metadata, error) {
	const op = "catalog.Service.List"
	log := s.log.With("op", op, "kind", s.kind, "search", search)
	f.Normalize()
	items, total, err := s.storage.List(ctx, search, f)
	if err != nil {
		log.Error(err.Error())
		return nil, filters.Metadata{}, err
	}
	return items, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *Service[T]) Create(ctx context.Context, name, slug string) (*T, error) {
	const op = "catalog.Service.Create"
	log := s.log.With("op", op, "kind", s.kind, "slug", slug)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &rules.ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) > rules.MaxNameLength {
		return nil, &rules.ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", rules.MaxNameLength)}
	}
	if err := rules.ValidateSlug(slug); err != nil {
		return nil, err
	}
	item, err := s.storage.Insert(ctx, name, slug)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("slug already taken")
			return nil, ErrSlugTaken
		}
		log.Error(err.Error())
		return nil, err
	}
	log.Info("created")
	return item, nil
}

func (s *Service[T]) Delete(ctx context.Context, slug string) error {
	const op = "catalog.Service.Delete"
	log := s.log.With("op", op, "kind", s.kind, "slug", slug)
	if err := s.storage.Delete(ctx, slug); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("not found")
			return ErrNotFound
		}
		log.Error(err.Error())
		return err
	}
	log.Info("deleted")
	return nil
}
