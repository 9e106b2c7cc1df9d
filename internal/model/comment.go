package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// CommentStatus is the review state of a comment.
type CommentStatus string

const (
	StatusPending  CommentStatus = "pending"
	StatusApproved CommentStatus = "approved"
	StatusRejected CommentStatus = "rejected"
	StatusSpam     CommentStatus = "spam"
)

// Valid reports whether s is one of the known statuses.
func (s CommentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSpam:
		return true
	}
	return false
}

// Comment constraints
const (
	MinCommentLength = 1
	MaxCommentLength = 1000
	// MaxNestingLevel bounds the number of ancestors a comment may have:
	// a reply is accepted only while its ancestor count stays below it.
	MaxNestingLevel = 3
)

// Comment represents a comment on a post. Depth is the number of ancestors
// (0 for a top-level comment) and is fixed at creation.
type Comment struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	PostID    uuid.UUID     `db:"post_id" json:"post_id"`
	AuthorID  *uuid.UUID    `db:"author_id" json:"author_id,omitempty"`
	ParentID  *uuid.UUID    `db:"parent_id" json:"parent_id,omitempty"`
	Depth     int           `db:"depth" json:"depth"`
	Content   string        `db:"content" json:"content"`
	Status    CommentStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time    `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Owner returns the author id; anonymous comments have no owner.
func (c *Comment) Owner() *uuid.UUID {
	return c.AuthorID
}

// IsDeleted reports whether the comment is a tombstone.
func (c *Comment) IsDeleted() bool {
	return c.DeletedAt != nil
}

// CommentView is the API representation of a comment.
type CommentView struct {
	ID           uuid.UUID     `json:"id"`
	PostID       uuid.UUID     `json:"post_id"`
	Author       *UserSummary  `json:"author"`
	ParentID     *uuid.UUID    `json:"parent_id"`
	Content      string        `json:"content"`
	Status       CommentStatus `json:"status"`
	Deleted      bool          `json:"deleted,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	RepliesCount int           `json:"replies_count"`
}

// NewCommentView projects a comment for reads. Tombstones keep their id and
// position in the thread but never expose content.
func NewCommentView(c *Comment, author *UserSummary, repliesCount int) CommentView {
	view := CommentView{
		ID:           c.ID,
		PostID:       c.PostID,
		Author:       author,
		ParentID:     c.ParentID,
		Content:      c.Content,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		RepliesCount: repliesCount,
	}
	if c.IsDeleted() {
		view.Content = ""
		view.Author = nil
		view.Deleted = true
	}
	return view
}

// CommentResponse wraps a single comment: {"comment": {...}}.
type CommentResponse struct {
	Comment CommentView `json:"comment"`
}

// CommentListResponse is the paginated comment list response.
type CommentListResponse struct {
	Comments   []CommentView `json:"comments"`
	Pagination Pagination    `json:"pagination"`
}

// CommentFilters narrows a post's comment listing.
type CommentFilters struct {
	Status   *CommentStatus
	AuthorID *uuid.UUID
	// LiveOnly drops tombstoned comments before counting and paging.
	LiveOnly bool
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	PostID   uuid.UUID  `json:"post_id"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	Content  string     `json:"content"`
}

// Validate checks the content bounds. Length is counted in characters.
func (r CreateCommentRequest) Validate() error {
	return NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.PostID, validation.By(notNilUUID)),
		validation.Field(&r.Content, contentRules...),
	))
}

// UpdateCommentRequest is the request body for updating a comment.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// Validate checks the content bounds.
func (r UpdateCommentRequest) Validate() error {
	return NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Content, contentRules...),
	))
}

var contentRules = []validation.Rule{
	validation.Required.Error("comment must be between 1 and 1000 characters"),
	validation.RuneLength(MinCommentLength, MaxCommentLength).Error("comment must be between 1 and 1000 characters"),
}

var errRequiredID = errors.New("cannot be blank")

func notNilUUID(value interface{}) error {
	if id, ok := value.(uuid.UUID); ok && id == uuid.Nil {
		return errRequiredID
	}
	return nil
}

// ValidateCommentContent applies the content bounds outside of a request body.
func ValidateCommentContent(content string) error {
	return NewValidationError(validation.Validate(content, contentRules...))
}
