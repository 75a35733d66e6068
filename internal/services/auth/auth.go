package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/rules"
	"yamdb/proj/internal/mails"
	"yamdb/proj/internal/services/users"
	"yamdb/proj/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type MailProvider interface {
	Send(recipient string, tmplName string, tmplData any) error
}

type UserStorage interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	SetConfirmationCode(ctx context.Context, userID int64, codeHash []byte) error
	MarkConfirmed(ctx context.Context, userID int64, at time.Time) error
}

type Options struct {
	Secret   string
	TokenTTL time.Duration
	// RotateCode clears the stored code after a successful exchange.
	RotateCode bool
}

type AuthService struct {
	log      *slog.Logger
	Mailer   MailProvider
	users    UserStorage
	opts     Options
	hashCost int
	now      func() time.Time
}

func New(log *slog.Logger, mailer MailProvider, users UserStorage, opts Options) *AuthService {
	return &AuthService{
		log:      log,
		Mailer:   mailer,
		users:    users,
		opts:     opts,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// NewConfirmationCode returns 32 upper-case hex characters taken from a
// random (v4) UUID.
func NewConfirmationCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// SignUp registers (username, email) if needed and mails a fresh
// confirmation code. Repeating the call with the same pair only re-issues
// the code.
func (a *AuthService) SignUp(ctx context.Context, username, email string) (*models.User, error) {
	const op = "auth.AuthService.SignUp"
	log := a.log.With("op", op, "username", username, "email", email)
	if err := rules.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := users.ValidateEmail(email); err != nil {
		return nil, err
	}
	user, err := a.getOrCreate(ctx, username, email)
	if err != nil {
		var vErr *rules.ValidationError
		if errors.As(err, &vErr) {
			log.Info("sign-up conflict", "field", vErr.Field)
		} else {
			log.Error("Error resolving user", "errMsg", err.Error())
		}
		return nil, err
	}

	code := NewConfirmationCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), a.hashCost)
	if err != nil {
		log.Error("Error hashing confirmation code", "errMsg", err.Error())
		return nil, err
	}
	if err := a.users.SetConfirmationCode(ctx, user.ID, hash); err != nil {
		log.Error("Error storing confirmation code", "errMsg", err.Error())
		return nil, err
	}
	log.Info("sending confirmation code")
	err = a.Mailer.Send(user.Email, mails.ConfirmationCodeTmpl, map[string]any{
		"username": user.Username,
		"code":     code,
	})
	if err != nil {
		log.Error("Error sending confirmation email", "errMsg", err.Error())
		return nil, fmt.Errorf("sending confirmation email: %w", err)
	}
	return user, nil
}

func (a *AuthService) getOrCreate(ctx context.Context, username, email string) (*models.User, error) {
	byName, err := a.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	byEmail, err := a.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	switch {
	case byName != nil && byName.Email != email:
		return nil, ErrUsernameTaken
	case byEmail != nil && byEmail.Username != username:
		return nil, ErrEmailTaken
	case byName != nil:
		return byName, nil
	}
	user, err := a.users.Insert(ctx, &models.User{Username: username, Email: email, Role: models.RoleUser})
	if err != nil {
		// lost a race with a concurrent sign-up
		if errors.Is(err, storage.ErrConflict) {
			if storage.Constraint(err) == "users_email_key" {
				return nil, ErrEmailTaken
			}
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

type claims struct {
	jwt.RegisteredClaims
	UID  int64       `json:"uid"`
	Role models.Role `json:"role"`
}

// ExchangeToken trades a confirmation code for a signed access token.
func (a *AuthService) ExchangeToken(ctx context.Context, username, code string) (string, error) {
	const op = "auth.AuthService.ExchangeToken"
	log := a.log.With("op", op, "username", username)
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return "", ErrUserNotFound
		}
		log.Error(err.Error())
		return "", err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(user.ConfirmationCode) == 0 || bcrypt.CompareHashAndPassword(user.ConfirmationCode, []byte(code)) != nil {
		log.Info("confirmation code mismatch")
		return "", ErrInvalidCode
	}
	token, err := a.issueToken(user)
	if err != nil {
		log.Error("Error signing token", "errMsg", err.Error())
		return "", err
	}
	if err := a.users.MarkConfirmed(ctx, user.ID, a.now().UTC()); err != nil {
		log.Error("Error marking user confirmed", "errMsg", err.Error())
		return "", err
	}
	if a.opts.RotateCode {
		if err := a.users.SetConfirmationCode(ctx, user.ID, nil); err != nil {
			log.Error("Error rotating confirmation code", "errMsg", err.Error())
			return "", err
		}
	}
	log.Info("token issued")
	return token, nil
}

func (a *AuthService) issueToken(user *models.User) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.opts.TokenTTL)),
		},
		UID:  user.ID,
		Role: user.Role,
	})
	return token.SignedString([]byte(a.opts.Secret))
}

// VerifyToken validates the token and loads its user. The role is taken
// from the store, not from the token, so role changes apply at once.
func (a *AuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.AuthService.VerifyToken"
	log := a.log.With("op", op)
	var c claims
	_, err := jwt.ParseWithClaims(
		token,
		&c,
		func(*jwt.Token) (any, error) { return []byte(a.opts.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		log.Info("token rejected", "errMsg", err.Error())
		return nil, ErrInvalidToken
	}
	user, err := a.users.GetByID(ctx, c.UID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("token user no longer exists", "uid", c.UID)
			return nil, ErrInvalidToken
		}
		log.Error(err.Error())
		return nil, err
	}
	return user, nil
}
