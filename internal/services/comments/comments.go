package comments

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
	ErrReviewNotFound  = errors.New("review not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyText       = &rules.ValidationError{Field: "text", Message: "text is required"}
)

type CommentStorage interface {
	List(ctx context.Context, reviewID int64, f filters.Filters) ([]models.Comment, int, error)
	Get(ctx context.Context, reviewID, id int64) (*models.Comment, error)
	Insert(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	Delete(ctx context.Context, reviewID, id int64) error
}

type ReviewGetter interface {
	Get(ctx context.Context, titleID, id int64) (*models.Review, error)
}

type CommentService struct {
	log     *slog.Logger
	storage CommentStorage
	reviews ReviewGetter
}

func New(log *slog.Logger, storage CommentStorage, reviews ReviewGetter) *CommentService {
	return &CommentService{
		log:     log,
		storage: storage,
		reviews: reviews,
	}
}

// requireReview checks that the review exists under the given title.
func (s *CommentService) requireReview(ctx context.Context, titleID, reviewID int64) error {
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	return nil
}

func (s *CommentService) List(ctx context.Context, titleID, reviewID int64, f filters.Filters) ([]models.Comment, filters.Metadata, error) {
	const op = "comments.CommentService.List"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID)
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		log.Info("review lookup failed", "errMsg", err.Error())
		return nil, filters.Metadata{}, err
	}
	f.Normalize()
	comments, total, err := s.storage.List(ctx, reviewID, f)
	if err != nil {
		log.Error(err.Error())
		return nil, filters.Metadata{}, err
	}
	return comments, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *CommentService) Get(ctx context.Context, titleID, reviewID, id int64) (*models.Comment, error) {
	const op = "comments.CommentService.Get"
	log := s.log.With("op", op, "review_id", reviewID, "id", id)
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.storage.Get(ctx, reviewID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("comment not found")
			return nil, ErrCommentNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Create(ctx context.Context, titleID, reviewID int64, author *models.User, text string) (*models.Comment, error) {
	const op = "comments.CommentService.Create"
	log := s.log.With("op", op, "review_id", reviewID, "author_id", author.ID)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		log.Info("review lookup failed", "errMsg", err.Error())
		return nil, err
	}
	comment, err := s.storage.Insert(ctx, &models.Comment{
		ReviewID: reviewID,
		AuthorID: author.ID,
		Text:     text,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidReference) {
			return nil, ErrReviewNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	log.Info("comment created", "id", comment.ID)
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, comment *models.Comment, text *string) (*models.Comment, error) {
	const op = "comments.CommentService.Update"
	log := s.log.With("op", op, "review_id", comment.ReviewID, "id", comment.ID)
	changed := *comment
	if text != nil {
		changed.Text = *text
	}
	if strings.TrimSpace(changed.Text) == "" {
		return nil, ErrEmptyText
	}
	updated, err := s.storage.Update(ctx, &changed)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("comment not found")
			return nil, ErrCommentNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	return updated, nil
}

func (s *CommentService) Delete(ctx context.Context, reviewID, id int64) error {
	const op = "comments.CommentService.Delete"
	log := s.log.With("op", op, "review_id", reviewID, "id", id)
	if err := s.storage.Delete(ctx, reviewID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("comment not found")
			return ErrCommentNotFound
		}
		log.Error(err.Error())
		return err
	}
	log.Info("comment deleted")
	return nil
}
