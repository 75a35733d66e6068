// Package rules holds the field-level invariants shared by the request
// validators and the services that write entities.
package rules

import (
	"fmt"
	"regexp"
	"time"
)

const (
	MinScore = 1
	MaxScore = 10

	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MaxNameLength     = 256
	MaxSlugLength     = 50

	// ReservedUsername is the path segment of the self-service profile endpoint.
	ReservedUsername = "me"
)

var (
	usernameRx = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)
	slugRx     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// ValidationError reports a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Now is swapped in tests that need a fixed calendar.
var Now = time.Now

func ValidateYear(year int32) error {
	if current := Now().Year(); int(year) > current {
		return invalid("year", "year must not be later than %d", current)
	}
	return nil
}

func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return invalid("score", "score must be between %d and %d", MinScore, MaxScore)
	}
	return nil
}

func ValidateUsername(username string) error {
	switch {
	case username == "":
		return invalid("username", "username is required")
	case username == ReservedUsername:
		return invalid("username", "username %q is not allowed", username)
	case len(username) > MaxUsernameLength:
		return invalid("username", "username must be at most %d characters", MaxUsernameLength)
	case !usernameRx.MatchString(username):
		return invalid("username", "username may contain only letters, digits and _.@+-")
	}
	return nil
}

func ValidateSlug(slug string) error {
	switch {
	case slug == "":
		return invalid("slug", "slug is required")
	case len(slug) > MaxSlugLength:
		return invalid("slug", "slug must be at most %d characters", MaxSlugLength)
	case !slugRx.MatchString(slug):
		return invalid("slug", "slug may contain only letters, digits, - and _")
	}
	return nil
}
