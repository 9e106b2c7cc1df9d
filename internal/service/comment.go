package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"quillpress/internal/auth"
	"quillpress/internal/logger"
	"quillpress/internal/model"
	"quillpress/internal/queue"
	"quillpress/internal/repository"
)

// CommentService manages comment threads: creation under the reply rules,
// owner-only edits, soft deletes, and paginated reads.
type CommentService struct {
	comments  repository.CommentRepository
	posts     repository.PostRepository
	users     repository.UserRepository
	publisher queue.Publisher // nil when Redis is not configured
	now       func() time.Time
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	publisher queue.Publisher,
) *CommentService {
	return &CommentService{
		comments:  comments,
		posts:     posts,
		users:     users,
		publisher: publisher,
		now:       time.Now,
	}
}

// Create stores a new pending comment. authorID is nil for anonymous
// comments. Parent checks and the insert happen in one store write.
func (s *CommentService) Create(ctx context.Context, authorID *uuid.UUID, req model.CreateCommentRequest) (*model.CommentView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.posts.Get(ctx, req.PostID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &model.Comment{
		ID:        uuid.New(),
		PostID:    req.PostID,
		AuthorID:  authorID,
		ParentID:  req.ParentID,
		Content:   req.Content,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}

	logger.For("comment_service").Info().
		Stringer("comment_id", c.ID).
		Stringer("post_id", c.PostID).
		Int("depth", c.Depth).
		Msg("comment created")
	s.publish(ctx, queue.NewCommentCreatedEvent(c))

	views, err := s.views(ctx, []model.Comment{*c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Reply creates a comment under parentID on the parent's own post.
func (s *CommentService) Reply(ctx context.Context, authorID *uuid.UUID, parentID uuid.UUID, content string) (*model.CommentView, error) {
	if err := model.ValidateCommentContent(content); err != nil {
		return nil, err
	}

	parent, err := s.comments.Get(ctx, parentID)
	if errors.Is(err, model.ErrCommentNotFound) {
		return nil, model.ErrParentNotFound
	}
	if err != nil {
		return nil, err
	}

	return s.Create(ctx, authorID, model.CreateCommentRequest{
		PostID:   parent.PostID,
		ParentID: &parentID,
		Content:  content,
	})
}

// Get returns a single comment. Tombstones are reported as gone.
func (s *CommentService) Get(ctx context.Context, id uuid.UUID) (*model.CommentView, error) {
	c, err := s.comments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted() {
		return nil, model.ErrCommentDeleted
	}

	views, err := s.views(ctx, []model.Comment{*c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Update replaces the content of the caller's own comment. Status is kept.
func (s *CommentService) Update(ctx context.Context, identity model.Identity, id uuid.UUID, req model.UpdateCommentRequest) (*model.CommentView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.loadForMutation(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	c.Content = req.Content
	c.UpdatedAt = s.now().UTC()
	if err := s.comments.Update(ctx, c); err != nil {
		return nil, err
	}

	views, err := s.views(ctx, []model.Comment{*c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Delete turns the caller's own comment into a tombstone. Replies stay.
func (s *CommentService) Delete(ctx context.Context, identity model.Identity, id uuid.UUID) error {
	c, err := s.loadForMutation(ctx, identity, id)
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}

	logger.For("comment_service").Info().Stringer("comment_id", id).Msg("comment deleted")
	s.publish(ctx, queue.NewCommentDeletedEvent(c, s.now().UTC()))
	return nil
}

// List returns a page of a post's comments, oldest first.
func (s *CommentService) List(ctx context.Context, postID uuid.UUID, filters model.CommentFilters, page model.Page) (*model.CommentListResponse, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, err
	}

	comments, total, err := s.comments.ListByPost(ctx, postID, filters, page)
	if err != nil {
		return nil, err
	}
	return s.listResponse(ctx, comments, total, page)
}

// ListReplies returns a page of the direct replies to a comment. Replies of
// a tombstone remain readable.
func (s *CommentService) ListReplies(ctx context.Context, parentID uuid.UUID, page model.Page) (*model.CommentListResponse, error) {
	if _, err := s.comments.Get(ctx, parentID); err != nil {
		return nil, err
	}

	comments, total, err := s.comments.ListReplies(ctx, parentID, page)
	if err != nil {
		return nil, err
	}
	return s.listResponse(ctx, comments, total, page)
}

// View projects a comment the service did not load itself, such as the
// result of a moderation decision.
func (s *CommentService) View(ctx context.Context, c *model.Comment) (*model.CommentView, error) {
	views, err := s.views(ctx, []model.Comment{*c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CommentService) loadForMutation(ctx context.Context, identity model.Identity, id uuid.UUID) (*model.Comment, error) {
	c, err := s.comments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted() {
		return nil, model.ErrCommentDeleted
	}
	if err := auth.AuthorizeOwned(&identity, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommentService) listResponse(ctx context.Context, comments []model.Comment, total int, page model.Page) (*model.CommentListResponse, error) {
	views, err := s.views(ctx, comments)
	if err != nil {
		return nil, err
	}
	return &model.CommentListResponse{
		Comments:   views,
		Pagination: model.NewPagination(page, total),
	}, nil
}

// views enriches comments with author summaries and reply counts using one
// batch lookup each.
func (s *CommentService) views(ctx context.Context, comments []model.Comment) ([]model.CommentView, error) {
	ids := make([]uuid.UUID, 0, len(comments))
	authorIDs := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
		if c.AuthorID != nil {
			authorIDs = append(authorIDs, *c.AuthorID)
		}
	}

	counts, err := s.comments.CountReplies(ctx, ids)
	if err != nil {
		return nil, err
	}
	authors, err := s.users.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]model.CommentView, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		var author *model.UserSummary
		if c.AuthorID != nil {
			if u, ok := authors[*c.AuthorID]; ok {
				author = u.Summary()
			}
		}
		views = append(views, model.NewCommentView(c, author, counts[c.ID]))
	}
	return views, nil
}

// publish sends an event after the write has committed. Failures are
// logged and never fail the request.
func (s *CommentService) publish(ctx context.Context, event queue.CommentEvent) {
	publishEvent(ctx, s.publisher, event)
}

func publishEvent(ctx context.Context, publisher queue.Publisher, event queue.CommentEvent) {
	if publisher == nil {
		return
	}
	if _, err := publisher.Publish(ctx, queue.StreamComments, event); err != nil {
		logger.For("events").Warn().Err(err).
			Str("type", event.Type).
			Stringer("comment_id", event.CommentID).
			Msg("publish failed")
	}
}
