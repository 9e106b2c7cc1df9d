package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quillpress/internal/model"
)

// Resource is the capability set every stored entity shares. Each storage
// backend implements it once per entity type instead of redeclaring the
// same shape per service.
type Resource[T any] interface {
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context, page model.Page) ([]T, int, error)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	Resource[model.User]
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByIDs returns the users that exist among ids, keyed by id.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error)
}

// PostRepository stores posts. Get and List never return soft-deleted posts
// and Delete only sets deleted_at.
type PostRepository interface {
	Resource[model.Post]
}

// CommentRepository stores comment threads.
//
// Create inserts a comment. When ParentID is set the parent is read and
// checked with model.CheckReplyParent inside the same atomic write, and the
// resulting depth is stored on the new comment.
//
// Get returns tombstones too; callers decide how to present them.
// Update persists Content and UpdatedAt only. Delete is a soft delete.
type CommentRepository interface {
	Resource[model.Comment]

	// ListByPost returns a page of the post's comments, oldest first, and the total count.
	ListByPost(ctx context.Context, postID uuid.UUID, filters model.CommentFilters, page model.Page) ([]model.Comment, int, error)

	// ListReplies returns a page of direct replies to parentID and the total count.
	ListReplies(ctx context.Context, parentID uuid.UUID, page model.Page) ([]model.Comment, int, error)

	// CountReplies returns the number of live direct replies per comment id.
	CountReplies(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)

	// Moderate moves a pending comment to status and appends entry in one
	// atomic write. A comment that is no longer pending yields
	// model.ErrAlreadyModerated; a tombstone yields model.ErrCommentDeleted.
	Moderate(ctx context.Context, id uuid.UUID, status model.CommentStatus, at time.Time, entry *model.ModerationLog) (*model.Comment, error)
}

// ModerationLogRepository is the append-only audit sink for moderation.
type ModerationLogRepository interface {
	Append(ctx context.Context, entry *model.ModerationLog) error
	ListByComment(ctx context.Context, commentID uuid.UUID) ([]model.ModerationLog, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Users      UserRepository
	Posts      PostRepository
	Comments   CommentRepository
	Moderation ModerationLogRepository
}
