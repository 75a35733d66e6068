package models

import (
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage/postgres"
)

type Models struct {
	Categories *SlugModel[models.Category]
	Genres     *SlugModel[models.Genre]
	Titles     *TitleModel
	Reviews    *ReviewModel
	Comments   *CommentModel
	Users      *UserModel
}

func New(db *postgres.Storage) *Models {
	return &Models{
		Categories: &SlugModel[models.Category]{DB: db.Conn, table: "categories"},
		Genres:     &SlugModel[models.Genre]{DB: db.Conn, table: "genres"},
		Titles:     &TitleModel{DB: db.Conn},
		Reviews:    &ReviewModel{DB: db.Conn},
		Comments:   &CommentModel{DB: db.Conn},
		Users:      &UserModel{DB: db.Conn},
	}
}
