package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// ModerationAction is a reviewer decision on a pending comment.
type ModerationAction string

const (
	ActionApprove    ModerationAction = "approve"
	ActionReject     ModerationAction = "reject"
	ActionMarkAsSpam ModerationAction = "mark_as_spam"
)

// TargetStatus maps an action to the status it produces.
func (a ModerationAction) TargetStatus() (CommentStatus, error) {
	switch a {
	case ActionApprove:
		return StatusApproved, nil
	case ActionReject:
		return StatusRejected, nil
	case ActionMarkAsSpam:
		return StatusSpam, nil
	}
	return "", ErrInvalidModeration
}

// ModerationLog is an append-only audit record of one moderation action.
type ModerationLog struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	CommentID   uuid.UUID        `db:"comment_id" json:"comment_id"`
	ModeratorID uuid.UUID        `db:"moderator_id" json:"moderator_id"`
	Action      ModerationAction `db:"action" json:"action"`
	Reason      *string          `db:"reason" json:"reason,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// ModerateCommentRequest is the request body for POST /comments/{id}/moderate.
type ModerateCommentRequest struct {
	Action ModerationAction `json:"action"`
	Reason *string          `json:"reason,omitempty"`
}

// Validate checks the reason length. Unknown actions are reported by the
// state machine as ErrInvalidModeration.
func (r ModerateCommentRequest) Validate() error {
	return NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.RuneLength(0, 500)),
	))
}

// ModerationLogResponse lists the audit trail of a comment.
type ModerationLogResponse struct {
	Entries []ModerationLog `json:"entries"`
}

// ModerationQueueResponse lists comments awaiting review, oldest first.
type ModerationQueueResponse struct {
	CommentIDs []uuid.UUID `json:"comment_ids"`
	Pagination Pagination  `json:"pagination"`
}
