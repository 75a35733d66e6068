package services

import (
	"log/slog"

	"yamdb/proj/internal/config"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/mails"
	"yamdb/proj/internal/services/auth"
	"yamdb/proj/internal/services/catalog"
	"yamdb/proj/internal/services/comments"
	"yamdb/proj/internal/services/reviews"
	"yamdb/proj/internal/services/titles"
	"yamdb/proj/internal/services/users"
	"yamdb/proj/internal/storage/inmemory"
	pgmodels "yamdb/proj/internal/storage/postgres/models"
)

type UserStorage interface {
	users.UserStorage
	auth.UserStorage
}

// Storage is the set of tables the services run on. Both backends fill it.
type Storage struct {
	Categories catalog.Storage[models.Category]
	Genres     catalog.Storage[models.Genre]
	Titles     titles.Storage
	Reviews    reviews.ReviewStorage
	Comments   comments.CommentStorage
	Users      UserStorage
}

func PostgresStorage(m *pgmodels.Models) Storage {
	return Storage{
		Categories: m.Categories,
		Genres:     m.Genres,
		Titles:     m.Titles,
		Reviews:    m.Reviews,
		Comments:   m.Comments,
		Users:      m.Users,
	}
}

func InMemoryStorage(s *inmemory.Storage) Storage {
	return Storage{
		Categories: s.Categories,
		Genres:     s.Genres,
		Titles:     s.Titles,
		Reviews:    s.Reviews,
		Comments:   s.Comments,
		Users:      s.Users,
	}
}

type Services struct {
	Auth       *auth.AuthService
	Categories *catalog.Service[models.Category]
	Genres     *catalog.Service[models.Genre]
	Titles     *titles.TitleService
	Reviews    *reviews.ReviewService
	Comments   *comments.CommentService
	Users      *users.UserService
}

func New(log *slog.Logger, cfg *config.Config, storage Storage, mailer auth.MailProvider) *Services {
	return &Services{
		Auth: auth.New(log, mailer, storage.Users, auth.Options{
			Secret:     cfg.AppSecret,
			TokenTTL:   cfg.Auth.TokenTTL,
			RotateCode: cfg.Auth.RotateCode,
		}),
		Categories: catalog.New(log, storage.Categories, "category"),
		Genres:     catalog.New(log, storage.Genres, "genre"),
		Titles:     titles.New(log, storage.Titles),
		Reviews:    reviews.New(log, storage.Reviews, storage.Titles),
		Comments:   comments.New(log, storage.Comments, storage.Reviews),
		Users:      users.New(log, storage.Users),
	}
}

// NewMailer picks the HTTP sending API when a token is configured and
// plain SMTP otherwise.
func NewMailer(cfg *config.Config) auth.MailProvider {
	if cfg.SMTP.ApiToken != "" {
		return &mails.ApiMailer{
			ApiToken:     cfg.SMTP.ApiToken,
			Sender:       cfg.SMTP.Sender,
			RetriesCount: cfg.SMTP.RetriesCount,
		}
	}
	return mails.New(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Timeout,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.Sender,
		cfg.SMTP.RetriesCount,
	)
}
