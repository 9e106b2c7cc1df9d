package model

import (
	"errors"
	"fmt"
)

// Not found
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrParentNotFound  = errors.New("parent comment not found")
)

// Authentication and authorization
var (
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenInvalid and ErrTokenExpired both unwrap to ErrUnauthorized so
	// callers that only care about the 401 class can match once.
	ErrTokenInvalid       = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrForbidden          = errors.New("permission denied")
)

// Validation
var (
	ErrValidation        = errors.New("validation failed")
	ErrBadRequest        = errors.New("bad request")
	ErrInvalidModeration = errors.New("invalid moderation action")
	ErrMaxNestingLevel   = errors.New("maximum comment nesting level reached")
	ErrParentNotApproved = errors.New("cannot reply to unapproved comment")
	ErrParentMismatch    = fmt.Errorf("%w: parent comment belongs to another post", ErrValidation)
	ErrParentCycle       = fmt.Errorf("%w: comment cannot be its own ancestor", ErrValidation)
)

// Conflict and gone
var (
	ErrAlreadyModerated = errors.New("comment is already moderated")
	ErrEmailExists      = errors.New("email already registered")
	ErrUsernameExists   = errors.New("username already exists")
	ErrCommentDeleted   = errors.New("comment has been deleted")
)

// Infrastructure
var (
	ErrDatabase = errors.New("database error")
	ErrInternal = errors.New("internal error")
)

// ValidationError carries field-level messages and matches ErrValidation.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// NewValidationError wraps err so that errors.Is(err, ErrValidation) holds.
// A nil err yields nil.
func NewValidationError(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// DatabaseError wraps a storage failure with the operation that produced it.
func DatabaseError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDatabase, err)
}
