package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// Post represents a blog post. Only the owner may edit or delete it.
type Post struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	OwnerID   uuid.UUID  `db:"owner_id" json:"owner_id"`
	Title     string     `db:"title" json:"title"`
	Body      string     `db:"body" json:"body"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// Owner returns the id the ownership guard compares against.
func (p *Post) Owner() *uuid.UUID {
	id := p.OwnerID
	return &id
}

// IsDeleted reports whether the post has been soft-deleted.
func (p *Post) IsDeleted() bool {
	return p.DeletedAt != nil
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Validate checks the post fields.
func (r CreatePostRequest) Validate() error {
	return NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, MaxPostTitleLength)),
		validation.Field(&r.Body, validation.Required, validation.Length(1, MaxPostBodyLength)),
	))
}

// UpdatePostRequest is the request body for updating a post. Nil fields are left untouched.
type UpdatePostRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

// Validate checks the post fields that are present.
func (r UpdatePostRequest) Validate() error {
	return NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, MaxPostTitleLength)),
		validation.Field(&r.Body, validation.NilOrNotEmpty, validation.Length(1, MaxPostBodyLength)),
	))
}

// PostListResponse is the paginated post list response.
type PostListResponse struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// Post constraints
const (
	MaxPostTitleLength = 200
	MaxPostBodyLength  = 50000
)
