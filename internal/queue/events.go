package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quillpress/internal/model"
)

// Event types for the comment stream
const (
	EventCommentCreated   = "comment_created"
	EventCommentModerated = "comment_moderated"
	EventCommentDeleted   = "comment_deleted"
)

// StreamComments carries every comment lifecycle event.
const StreamComments = "stream:comments"

// ConsumerGroupModeration is the group that keeps the moderation queue in sync.
const ConsumerGroupModeration = "moderation_workers"

// CommentEvent is the payload published for comment lifecycle changes.
type CommentEvent struct {
	Type      string              `json:"type"`
	Timestamp int64               `json:"timestamp"` // Unix seconds
	CommentID uuid.UUID           `json:"comment_id"`
	PostID    uuid.UUID           `json:"post_id"`
	AuthorID  *uuid.UUID          `json:"author_id,omitempty"`
	ParentID  *uuid.UUID          `json:"parent_id,omitempty"`
	Status    model.CommentStatus `json:"status"`

	// Set on EventCommentModerated only.
	ModeratorID *uuid.UUID             `json:"moderator_id,omitempty"`
	Action      model.ModerationAction `json:"action,omitempty"`
}

func newCommentEvent(eventType string, c *model.Comment, at time.Time) CommentEvent {
	return CommentEvent{
		Type:      eventType,
		Timestamp: at.Unix(),
		CommentID: c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		ParentID:  c.ParentID,
		Status:    c.Status,
	}
}

// NewCommentCreatedEvent is published after a comment is stored as pending.
func NewCommentCreatedEvent(c *model.Comment) CommentEvent {
	return newCommentEvent(EventCommentCreated, c, c.CreatedAt)
}

// NewCommentModeratedEvent is published after a moderation action is applied.
func NewCommentModeratedEvent(c *model.Comment, entry *model.ModerationLog) CommentEvent {
	e := newCommentEvent(EventCommentModerated, c, entry.CreatedAt)
	moderatorID := entry.ModeratorID
	e.ModeratorID = &moderatorID
	e.Action = entry.Action
	return e
}

// NewCommentDeletedEvent is published after a comment becomes a tombstone.
func NewCommentDeletedEvent(c *model.Comment, at time.Time) CommentEvent {
	return newCommentEvent(EventCommentDeleted, c, at)
}

// ToMap converts the event to field-value pairs for XADD. The full event
// is JSON in the "data" field.
func (e CommentEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseCommentEvent parses a CommentEvent from stream message values.
func ParseCommentEvent(values map[string]interface{}) (CommentEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return CommentEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event CommentEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return CommentEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
