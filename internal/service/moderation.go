package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quillpress/internal/cache"
	"quillpress/internal/logger"
	"quillpress/internal/model"
	"quillpress/internal/queue"
	"quillpress/internal/repository"
)

// ErrQueueRequiresPost is returned for a global queue read when no Redis
// moderation queue is configured.
var ErrQueueRequiresPost = fmt.Errorf("%w: post_id is required", model.ErrValidation)

// ModerationService drives the pending -> approved|rejected|spam state
// machine and exposes the audit trail.
//
// Only pending comments can be moderated. A second decision on the same
// comment fails with model.ErrAlreadyModerated.
type ModerationService struct {
	comments  repository.CommentRepository
	logs      repository.ModerationLogRepository
	users     repository.UserRepository
	queue     cache.ModerationQueue // nil when Redis is not configured
	publisher queue.Publisher
	now       func() time.Time
}

func NewModerationService(
	comments repository.CommentRepository,
	logs repository.ModerationLogRepository,
	users repository.UserRepository,
	moderationQueue cache.ModerationQueue,
	publisher queue.Publisher,
) *ModerationService {
	return &ModerationService{
		comments:  comments,
		logs:      logs,
		users:     users,
		queue:     moderationQueue,
		publisher: publisher,
		now:       time.Now,
	}
}

// IsModerator reports whether the user behind id holds the moderator role.
func (s *ModerationService) IsModerator(ctx context.Context, id uuid.UUID) (bool, error) {
	u, err := s.users.Get(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsModerator(), nil
}

// Moderate applies action to a pending comment and records one audit entry
// stamped with the current time.
func (s *ModerationService) Moderate(ctx context.Context, moderator model.Identity, commentID uuid.UUID, req model.ModerateCommentRequest) (*model.Comment, error) {
	status, err := req.Action.TargetStatus()
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry := &model.ModerationLog{
		ID:          uuid.New(),
		CommentID:   commentID,
		ModeratorID: moderator.ID,
		Action:      req.Action,
		Reason:      req.Reason,
		CreatedAt:   now,
	}

	c, err := s.comments.Moderate(ctx, commentID, status, now, entry)
	if err != nil {
		return nil, err
	}

	logger.For("moderation_service").Info().
		Stringer("comment_id", commentID).
		Stringer("moderator_id", moderator.ID).
		Str("action", string(req.Action)).
		Str("status", string(status)).
		Msg("comment moderated")
	publishEvent(ctx, s.publisher, queue.NewCommentModeratedEvent(c, entry))

	return c, nil
}

// History returns the audit trail of a comment, oldest first.
func (s *ModerationService) History(ctx context.Context, commentID uuid.UUID) (*model.ModerationLogResponse, error) {
	if _, err := s.comments.Get(ctx, commentID); err != nil {
		return nil, err
	}
	entries, err := s.logs.ListByComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return &model.ModerationLogResponse{Entries: entries}, nil
}

// Queue lists pending comment ids, oldest first. It reads the Redis queue
// when configured and otherwise falls back to the store, which needs a post.
func (s *ModerationService) Queue(ctx context.Context, postID *uuid.UUID, page model.Page) (*model.ModerationQueueResponse, error) {
	if s.queue != nil {
		total, err := s.queue.Size(ctx, postID)
		if err != nil {
			return nil, err
		}
		ids, err := s.queue.List(ctx, postID, page.Offset(), page.Limit())
		if err != nil {
			return nil, err
		}
		return &model.ModerationQueueResponse{
			CommentIDs: ids,
			Pagination: model.NewPagination(page, int(total)),
		}, nil
	}

	if postID == nil {
		return nil, ErrQueueRequiresPost
	}
	pending := model.StatusPending
	filters := model.CommentFilters{Status: &pending, LiveOnly: true}
	comments, total, err := s.comments.ListByPost(ctx, *postID, filters, page)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	return &model.ModerationQueueResponse{
		CommentIDs: ids,
		Pagination: model.NewPagination(page, total),
	}, nil
}
