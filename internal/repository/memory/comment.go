package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quillpress/internal/model"
)

// commentRepository keeps comments in an arena keyed by id. Parent links
// are plain ids resolved through the arena.
type commentRepository struct {
	db *db
}

func (r *commentRepository) lookup(id uuid.UUID) (*model.Comment, bool) {
	c, ok := r.db.comments[id]
	return &c, ok
}

func (r *commentRepository) Create(_ context.Context, c *model.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c.Depth = 0
	if c.ParentID != nil {
		var parent *model.Comment
		if p, ok := r.lookup(*c.ParentID); ok {
			parent = p
		}
		depth, err := model.CheckReplyParent(parent, c)
		if err != nil {
			return err
		}
		// The stored depth must agree with the chain it claims to sit on.
		walked, err := model.AncestorCount(c.ParentID, r.lookup)
		if err != nil {
			return err
		}
		if walked != depth {
			return model.ErrInternal
		}
		c.Depth = depth
	}
	r.db.comments[c.ID] = *c
	return nil
}

func (r *commentRepository) Get(_ context.Context, id uuid.UUID) (*model.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.lookup(id)
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	return c, nil
}

func (r *commentRepository) List(_ context.Context, page model.Page) ([]model.Comment, int, error) {
	comments, total := r.collect(page, func(*model.Comment) bool { return true })
	return comments, total, nil
}

func (r *commentRepository) ListByPost(_ context.Context, postID uuid.UUID, filters model.CommentFilters, page model.Page) ([]model.Comment, int, error) {
	comments, total := r.collect(page, func(c *model.Comment) bool {
		if c.PostID != postID {
			return false
		}
		if filters.Status != nil && c.Status != *filters.Status {
			return false
		}
		if filters.AuthorID != nil && (c.AuthorID == nil || *c.AuthorID != *filters.AuthorID) {
			return false
		}
		if filters.LiveOnly && c.IsDeleted() {
			return false
		}
		return true
	})
	return comments, total, nil
}

func (r *commentRepository) ListReplies(_ context.Context, parentID uuid.UUID, page model.Page) ([]model.Comment, int, error) {
	comments, total := r.collect(page, func(c *model.Comment) bool {
		return c.ParentID != nil && *c.ParentID == parentID
	})
	return comments, total, nil
}

func (r *commentRepository) collect(page model.Page, keep func(*model.Comment) bool) ([]model.Comment, int) {
	r.db.mu.RLock()
	matched := []model.Comment{}
	for _, c := range r.db.comments {
		if keep(&c) {
			matched = append(matched, c)
		}
	}
	r.db.mu.RUnlock()

	return paginate(matched, page, func(a, b model.Comment) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID.String() < b.ID.String()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func (r *commentRepository) CountReplies(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	counts := make(map[uuid.UUID]int, len(ids))
	for _, c := range r.db.comments {
		if c.ParentID != nil && wanted[*c.ParentID] && !c.IsDeleted() {
			counts[*c.ParentID]++
		}
	}
	return counts, nil
}

func (r *commentRepository) Update(_ context.Context, c *model.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, err := r.live(c.ID)
	if err != nil {
		return err
	}
	existing.Content = c.Content
	existing.UpdatedAt = c.UpdatedAt
	r.db.comments[c.ID] = *existing
	return nil
}

func (r *commentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, err := r.live(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	existing.DeletedAt = &now
	existing.UpdatedAt = now
	r.db.comments[id] = *existing
	return nil
}

func (r *commentRepository) Moderate(_ context.Context, id uuid.UUID, status model.CommentStatus, at time.Time, entry *model.ModerationLog) (*model.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, err := r.live(id)
	if err != nil {
		return nil, err
	}
	if existing.Status != model.StatusPending {
		return nil, model.ErrAlreadyModerated
	}
	existing.Status = status
	existing.UpdatedAt = at
	r.db.comments[id] = *existing
	r.db.logs = append(r.db.logs, *entry)
	return existing, nil
}

// live must be called with the lock held.
func (r *commentRepository) live(id uuid.UUID) (*model.Comment, error) {
	c, ok := r.lookup(id)
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	if c.IsDeleted() {
		return nil, model.ErrCommentDeleted
	}
	return c, nil
}
