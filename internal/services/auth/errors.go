package auth

import (
	"errors"

	"yamdb/proj/internal/domain/rules"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidCode  = errors.New("invalid confirmation code")
	ErrInvalidToken = errors.New("invalid or expired token")

	// sign-up identity conflicts are reported as field errors
	ErrUsernameTaken = &rules.ValidationError{Field: "username", Message: "username is registered with another email"}
	ErrEmailTaken    = &rules.ValidationError{Field: "email", Message: "email is registered with another username"}
)
