package reviews

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/rules"
	"yamdb/proj/internal/storage"
)

var (
	ErrTitleNotFound  = errors.New("title not found")
	ErrReviewNotFound = errors.New("review not found")
	// ErrAlreadyReviewed is reported as a validation failure, whether it is
	// caught by the pre-check or by the storage unique key.
	ErrAlreadyReviewed = &rules.ValidationError{Field: "title", Message: "you have already reviewed this title"}
	ErrEmptyText       = &rules.ValidationError{Field: "text", Message: "text is required"}
)

type ReviewStorage interface {
	List(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, int, error)
	Get(ctx context.Context, titleID, id int64) (*models.Review, error)
	Exists(ctx context.Context, titleID, authorID int64) (bool, error)
	Insert(ctx context.Context, review *models.Review) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) (*models.Review, error)
	Delete(ctx context.Context, titleID, id int64) error
}

type TitleGetter interface {
	Get(ctx context.Context, id int64) (*models.Title, error)
}

type ReviewService struct {
	log     *slog.Logger
	storage ReviewStorage
	titles  TitleGetter
}

func New(log *slog.Logger, storage ReviewStorage, titles TitleGetter) *ReviewService {
	return &ReviewService{
		log:     log,
		storage: storage,
		titles:  titles,
	}
}

func (s *ReviewService) requireTitle(ctx context.Context, titleID int64) error {
	if _, err := s.titles.Get(ctx, titleID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTitleNotFound
		}
		return err
	}
	return nil
}

func (s *ReviewService) List(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, filters.Metadata, error) {
	const op = "reviews.ReviewService.List"
	log := s.log.With("op", op, "title_id", titleID)
	if err := s.requireTitle(ctx, titleID); err != nil {
		log.Info("title lookup failed", "errMsg", err.Error())
		return nil, filters.Metadata{}, err
	}
	f.Normalize()
	reviews, total, err := s.storage.List(ctx, titleID, f)
	if err != nil {
		log.Error(err.Error())
		return nil, filters.Metadata{}, err
	}
	return reviews, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *ReviewService) Get(ctx context.Context, titleID, id int64) (*models.Review, error) {
	const op = "reviews.ReviewService.Get"
	log := s.log.With("op", op, "title_id", titleID, "id", id)
	review, err := s.storage.Get(ctx, titleID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("review not found")
			return nil, ErrReviewNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	return review, nil
}

// Create posts author's review of the title. Title and author never come
// from the payload.
func (s *ReviewService) Create(ctx context.Context, titleID int64, author *models.User, text string, score int) (*models.Review, error) {
	const op = "reviews.ReviewService.Create"
	log := s.log.With("op", op, "title_id", titleID, "author_id", author.ID)
	if err := validate(text, score); err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		log.Info("title lookup failed", "errMsg", err.Error())
		return nil, err
	}
	exists, err := s.storage.Exists(ctx, titleID, author.ID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	if exists {
		log.Info("title already reviewed")
		return nil, ErrAlreadyReviewed
	}
	review, err := s.storage.Insert(ctx, &models.Review{
		TitleID:  titleID,
		AuthorID: author.ID,
		Text:     text,
		Score:    score,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			log.Info("title already reviewed", "constraint", storage.Constraint(err))
			return nil, ErrAlreadyReviewed
		case errors.Is(err, storage.ErrCheckViolation):
			log.Info("rejected by check constraint", "constraint", storage.Constraint(err))
			return nil, &rules.ValidationError{Field: "score", Message: "score is out of range"}
		case errors.Is(err, storage.ErrInvalidReference):
			// the title was deleted after the lookup
			return nil, ErrTitleNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	log.Info("review created", "id", review.ID)
	return review, nil
}

// ReviewPatch carries a partial update; nil fields keep their value.
type ReviewPatch struct {
	Text  *string
	Score *int
}

// Update applies patch to a review the caller has already resolved and
// authorized.
func (s *ReviewService) Update(ctx context.Context, review *models.Review, patch ReviewPatch) (*models.Review, error) {
	const op = "reviews.ReviewService.Update"
	log := s.log.With("op", op, "title_id", review.TitleID, "id", review.ID)
	changed := *review
	if patch.Text != nil {
		changed.Text = *patch.Text
	}
	if patch.Score != nil {
		changed.Score = *patch.Score
	}
	if err := validate(changed.Text, changed.Score); err != nil {
		return nil, err
	}
	updated, err := s.storage.Update(ctx, &changed)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("review not found")
			return nil, ErrReviewNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	log.Info("review updated")
	return updated, nil
}

func (s *ReviewService) Delete(ctx context.Context, titleID, id int64) error {
	const op = "reviews.ReviewService.Delete"
	log := s.log.With("op", op, "title_id", titleID, "id", id)
	if err := s.storage.Delete(ctx, titleID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("review not found")
			return ErrReviewNotFound
		}
		log.Error(err.Error())
		return err
	}
	log.Info("review deleted")
	return nil
}

func validate(text string, score int) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return rules.ValidateScore(score)
}
