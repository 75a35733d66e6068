package models

import (
	"time"

	"yamdb/proj/internal/domain/fields"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleSuperUser Role = "super_user"
)

var Roles = []Role{RoleUser, RoleModerator, RoleAdmin, RoleSuperUser}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID       int64  `json:"-" db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
	Role     Role   `json:"role" db:"role"`
	Bio      string `json:"bio" db:"bio"`
	// bcrypt hash of the last issued confirmation code, never the code itself
	ConfirmationCode []byte     `json:"-" db:"confirmation_code"`
	ConfirmedAt      *time.Time `json:"-" db:"confirmed_at"` // first successful code exchange
	CreatedAt        time.Time  `json:"-" db:"created_at"`
}

// AnonymousUser is the principal of requests without credentials.
var AnonymousUser = &User{}

func (u *User) IsAnonymous() bool {
	return u == nil || u == AnonymousUser
}

func (u *User) OwnerID() int64 { return u.ID }

type Category struct {
	ID   int64  `json:"-" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

type Genre struct {
	ID   int64  `json:"-" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

type Title struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Year        int32         `json:"year"`
	Rating      fields.Rating `json:"rating"` // mean review score, null without reviews
	Description string        `json:"description"`
	Genres      []Genre       `json:"genre"`
	Category    *Category     `json:"category"` // nil once its category is deleted
}

// TitleParams is the write shape of a title: category and genres are
// referenced by slug.
type TitleParams struct {
	Name        string
	Year        int32
	Description string
	Category    *string
	Genres      []string
}

type Review struct {
	ID       int64     `json:"id" db:"id"`
	TitleID  int64     `json:"title" db:"title_id"`
	AuthorID int64     `json:"-" db:"author_id"`
	Author   string    `json:"author" db:"author"` // username of the author
	Text     string    `json:"text" db:"text"`
	Score    int       `json:"score" db:"score"`
	PubDate  time.Time `json:"pub_date" db:"pub_date"` // set once on insert
}

func (r *Review) OwnerID() int64 { return r.AuthorID }

type Comment struct {
	ID       int64     `json:"id" db:"id"`
	ReviewID int64     `json:"review" db:"review_id"`
	AuthorID int64     `json:"-" db:"author_id"`
	Author   string    `json:"author" db:"author"`
	Text     string    `json:"text" db:"text"`
	PubDate  time.Time `json:"pub_date" db:"pub_date"`
}

func (c *Comment) OwnerID() int64 { return c.AuthorID }
