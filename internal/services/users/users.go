package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/rules"
	"yamdb/proj/internal/storage"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = &rules.ValidationError{Field: "username", Message: "user with this username already exists"}
	ErrEmailTaken    = &rules.ValidationError{Field: "email", Message: "user with this email already exists"}
)

type UserStorage interface {
	List(ctx context.Context, search string, f filters.Filters) ([]models.User, int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, username string) error
}

type UserService struct {
	log     *slog.Logger
	storage UserStorage
}

func New(log *slog.Logger, storage UserStorage) *UserService {
	return &UserService{
		log:     log,
		storage: storage,
	}
}

func (s *UserService) List(ctx context.Context, search string, f filters.Filters) ([]models.User, filters.Metadata, error) {
	const op = "users.UserService.List"
	log := s.log.With("op", op, "search", search)
	f.Normalize()
	users, total, err := s.storage.List(ctx, search, f)
	if err != nil {
		log.Error(err.Error())
		return nil, filters.Metadata{}, err
	}
	return users, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	const op = "users.UserService.Get"
	log := s.log.With("op", op, "username", username)
	user, err := s.storage.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return nil, ErrUserNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	return user, nil
}

type CreateParams struct {
	Username string
	Email    string
	Role     models.Role
	Bio      string
}

// Create adds a user on behalf of an admin. The user gets a confirmation
// code on their first sign-up request.
func (s *UserService) Create(ctx context.Context, p CreateParams) (*models.User, error) {
	const op = "users.UserService.Create"
	log := s.log.With("op", op, "username", p.Username, "role", p.Role)
	if p.Role == "" {
		p.Role = models.RoleUser
	}
	user := &models.User{Username: p.Username, Email: p.Email, Role: p.Role, Bio: p.Bio}
	if err := validate(user); err != nil {
		return nil, err
	}
	created, err := s.storage.Insert(ctx, user)
	if err != nil {
		if mapped := mapConflict(err); mapped != nil {
			log.Info("user already exists", "constraint", storage.Constraint(err))
			return nil, mapped
		}
		log.Error(err.Error())
		return nil, err
	}
	log.Info("user created")
	return created, nil
}

// UserPatch carries a partial update; nil fields keep their value.
type UserPatch struct {
	Username *string
	Email    *string
	Role     *models.Role
	Bio      *string
}

func (s *UserService) Update(ctx context.Context, username string, patch UserPatch) (*models.User, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, patch)
}

// UpdateMe applies a self-service patch. The role is never writable here,
// whatever the payload says.
func (s *UserService) UpdateMe(ctx context.Context, me *models.User, patch UserPatch) (*models.User, error) {
	patch.Role = nil
	return s.apply(ctx, me, patch)
}

func (s *UserService) apply(ctx context.Context, user *models.User, patch UserPatch) (*models.User, error) {
	const op = "users.UserService.apply"
	log := s.log.With("op", op, "user_id", user.ID)
	changed := *user
	if patch.Username != nil {
		changed.Username = *patch.Username
	}
	if patch.Email != nil {
		changed.Email = *patch.Email
	}
	if patch.Role != nil {
		changed.Role = *patch.Role
	}
	if patch.Bio != nil {
		changed.Bio = *patch.Bio
	}
	if err := validate(&changed); err != nil {
		return nil, err
	}
	updated, err := s.storage.Update(ctx, &changed)
	if err != nil {
		if mapped := mapConflict(err); mapped != nil {
			log.Info("user already exists", "constraint", storage.Constraint(err))
			return nil, mapped
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	log.Info("user updated")
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, username string) error {
	const op = "users.UserService.Delete"
	log := s.log.With("op", op, "username", username)
	if err := s.storage.Delete(ctx, username); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return ErrUserNotFound
		}
		log.Error(err.Error())
		return err
	}
	log.Info("user deleted")
	return nil
}

func validate(u *models.User) error {
	if err := rules.ValidateUsername(u.Username); err != nil {
		return err
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if !u.Role.Valid() {
		return &rules.ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", u.Role)}
	}
	return nil
}

// ValidateEmail accepts a bare address of at most 254 characters.
func ValidateEmail(email string) error {
	if email == "" {
		return &rules.ValidationError{Field: "email", Message: "email is required"}
	}
	if len(email) > rules.MaxEmailLength {
		return &rules.ValidationError{Field: "email", Message: fmt.Sprintf("email must be at most %d characters", rules.MaxEmailLength)}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &rules.ValidationError{Field: "email", Message: "enter a valid email address"}
	}
	return nil
}

func mapConflict(err error) error {
	if !errors.Is(err, storage.ErrConflict) {
		return nil
	}
	if storage.Constraint(err) == "users_email_key" {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}
