package titles

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
	ErrTitleNotFound   = errors.New("title not found")
	ErrUnknownCategory = &rules.ValidationError{Field: "category", Message: "category with this slug does not exist"}
	ErrUnknownGenre    = &rules.ValidationError{Field: "genre", Message: "genre with this slug does not exist"}
	ErrNoGenres        = &rules.ValidationError{Field: "genre", Message: "at least one genre is required"}
)

// SortSafelist lists the columns a title listing may be ordered by.
var SortSafelist = []string{"id", "name", "year", "rating", "-id", "-name", "-year", "-rating"}

type Storage interface {
	List(ctx context.Context, tf filters.TitleFilter, f filters.Filters) ([]models.Title, int, error)
	Get(ctx context.Context, id int64) (*models.Title, error)
	Insert(ctx context.Context, p models.TitleParams) (*models.Title, error)
	Update(ctx context.Context, id int64, p models.TitleParams) (*models.Title, error)
	Delete(ctx context.Context, id int64) error
}

type TitleService struct {
	log     *slog.Logger
	storage Storage
}

func New(log *slog.Logger, storage Storage) *TitleService {
	return &TitleService{
		log:     log,
		storage: storage,
	}
}

func (s *TitleService) List(ctx context.Context, tf filters.TitleFilter, f filters.Filters) ([]models.Title, filters.Metadata, error) {
	const op = "titles.TitleService.List"
	log := s.log.With("op", op)
	f.SortSafelist = SortSafelist
	if !f.ValidSort() {
		return nil, filters.Metadata{}, &rules.ValidationError{Field: "sort", Message: "unknown sort column"}
	}
	f.Normalize()
	titles, total, err := s.storage.List(ctx, tf, f)
	if err != nil {
		log.Error(err.Error())
		return nil, filters.Metadata{}, err
	}
	return titles, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *TitleService) Get(ctx context.Context, id int64) (*models.Title, error) {
	const op = "titles.TitleService.Get"
	log := s.log.With("op", op, "id", id)
	title, err := s.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title not found")
			return nil, ErrTitleNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	return title, nil
}

func (s *TitleService) Create(ctx context.Context, p models.TitleParams) (*models.Title, error) {
	const op = "titles.TitleService.Create"
	log := s.log.With("op", op, "name", p.Name, "year", p.Year)
	if err := validate(&p); err != nil {
		return nil, err
	}
	title, err := s.storage.Insert(ctx, p)
	if err != nil {
		if mapped := mapReferenceError(err); mapped != nil {
			log.Info("unknown slug", "constraint", storage.Constraint(err))
			return nil, mapped
		}
		log.Error(err.Error())
		return nil, err
	}
	log.Info("title created", "id", title.ID)
	return title, nil
}

// TitlePatch carries a partial update; nil fields keep their value.
type TitlePatch struct {
	Name        *string
	Year        *int32
	Description *string
	Category    *string
	Genres      []string
}

func (s *TitleService) Update(ctx context.Context, id int64, patch TitlePatch) (*models.Title, error) {
	const op = "titles.TitleService.Update"
	log := s.log.With("op", op, "id", id)
	title, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := paramsOf(title)
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Year != nil {
		p.Year = *patch.Year
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Category != nil {
		p.Category = patch.Category
	}
	if patch.Genres != nil {
		p.Genres = patch.Genres
	}
	if err := validate(&p); err != nil {
		return nil, err
	}
	updated, err := s.storage.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title not found")
			return nil, ErrTitleNotFound
		}
		if mapped := mapReferenceError(err); mapped != nil {
			log.Info("unknown slug", "constraint", storage.Constraint(err))
			return nil, mapped
		}
		log.Error(err.Error())
		return nil, err
	}
	log.Info("title updated")
	return updated, nil
}

func (s *TitleService) Delete(ctx context.Context, id int64) error {
	const op = "titles.TitleService.Delete"
	log := s.log.With("op", op, "id", id)
	if err := s.storage.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title not found")
			return ErrTitleNotFound
		}
		log.Error(err.Error())
		return err
	}
	log.Info("title deleted")
	return nil
}

// validate runs the entity-level checks that apply regardless of how the
// request was decoded.
func validate(p *models.TitleParams) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return &rules.ValidationError{Field: "name", Message: "name is required"}
	}
	if len(p.Name) > rules.MaxNameLength {
		return &rules.ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", rules.MaxNameLength)}
	}
	if err := rules.ValidateYear(p.Year); err != nil {
		return err
	}
	if len(p.Genres) == 0 {
		return ErrNoGenres
	}
	return nil
}

func paramsOf(t *models.Title) models.TitleParams {
	p := models.TitleParams{
		Name:        t.Name,
		Year:        t.Year,
		Description: t.Description,
		Genres:      make([]string, 0, len(t.Genres)),
	}
	if t.Category != nil {
		slug := t.Category.Slug
		p.Category = &slug
	}
	for _, g := range t.Genres {
		p.Genres = append(p.Genres, g.Slug)
	}
	return p
}

func mapReferenceError(err error) error {
	if !errors.Is(err, storage.ErrInvalidReference) {
		return nil
	}
	if storage.Constraint(err) == "category" {
		return ErrUnknownCategory
	}
	return ErrUnknownGenre
}
