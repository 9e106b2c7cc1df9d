package worker

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
)

// CommentReader reads the current state of a comment from the store.
// This keeps the worker off the repository package.
type CommentReader interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Comment, error)
}

// Handler keeps the moderation queue in line with comment events.
type Handler struct {
	queue    cache.ModerationQueue
	comments CommentReader
}

// NewHandler creates a new event handler.
func NewHandler(queue cache.ModerationQueue, comments CommentReader) *Handler {
	return &Handler{queue: queue, comments: comments}
}

// HandleEvent routes an event by type.
//
// Events can arrive out of order across workers, so the handler does not
// trust the status carried in the event. It re-reads the comment and
// reconciles: live and pending means queued, anything else means removed.
func (h *Handler) HandleEvent(ctx context.Context, event queue.CommentEvent) error {
	log := logger.For("worker")
	start := time.Now()

	switch event.Type {
	case queue.EventCommentCreated, queue.EventCommentModerated, queue.EventCommentDeleted:
	default:
		log.Warn().Str("type", event.Type).Msg("unknown event type")
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	queued, err := h.reconcile(ctx, event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Stringer("comment_id", event.CommentID).
			Dur("duration", time.Since(start)).Msg("handle event failed")
		return err
	}

	log.Debug().Str("type", event.Type).Stringer("comment_id", event.CommentID).
		Bool("queued", queued).Dur("duration", time.Since(start)).Msg("event handled")
	return nil
}

func (h *Handler) reconcile(ctx context.Context, event queue.CommentEvent) (bool, error) {
	c, err := h.comments.Get(ctx, event.CommentID)
	if errors.Is(err, model.ErrCommentNotFound) {
		return false, h.queue.Remove(ctx, event.PostID, event.CommentID)
	}
	if err != nil {
		return false, fmt.Errorf("read comment: %w", err)
	}

	if c.IsDeleted() || c.Status != model.StatusPending {
		return false, h.queue.Remove(ctx, c.PostID, c.ID)
	}
	return true, h.queue.Add(ctx, c.PostID, c.ID, c.CreatedAt)
}
