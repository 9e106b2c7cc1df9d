package model

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// User roles
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
)

// User represents a registered account.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"` // "-" hides from JSON output
	DisplayName  *string   `db:"display_name" json:"display_name"`
	Bio          *string   `db:"bio" json:"bio"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url"`
	AvatarKey    *string   `db:"avatar_key" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Owner makes User usable with the ownership guard: a profile is owned by itself.
func (u *User) Owner() *uuid.UUID {
	id := u.ID
	return &id
}

// IsModerator reports whether the user may moderate comments.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

// Summary returns the public author projection of the user.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// UserSummary is the lightweight author representation embedded in comments.
type UserSummary struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	DisplayName *string   `db:"display_name" json:"display_name,omitempty"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url,omitempty"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Validate checks the registration fields.
func (r RegisterRequest) Validate() error {
	return NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), validation.By(looksLikeEmail)),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&r.DisplayName, validation.Length(0, 100)),
	))
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login fields.
func (r LoginRequest) Validate() error {
	return NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	))
}

// UpdateProfileRequest is the body of PUT /users/{id}. Nil fields are left untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
}

// Validate checks the profile fields.
func (r UpdateProfileRequest) Validate() error {
	return NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.DisplayName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.Bio, validation.Length(0, 500)),
	))
}

// AuthResponse is returned after register and login.
type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // Seconds until the token expires
	User      *User  `json:"user"`
}

// ValidateTokenRequest is the body of POST /auth/validate.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

func looksLikeEmail(value interface{}) error {
	s, _ := value.(string)
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 || strings.Count(s, "@") != 1 {
		return errors.New("must be a valid email address")
	}
	return nil
}
