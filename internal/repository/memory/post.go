package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quillpress/internal/model"
)

type postRepository struct {
	db *db
}

func (r *postRepository) Create(_ context.Context, p *model.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.posts[p.ID] = *p
	return nil
}

func (r *postRepository) Get(_ context.Context, id uuid.UUID) (*model.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.posts[id]
	if !ok || p.IsDeleted() {
		return nil, model.ErrPostNotFound
	}
	return &p, nil
}

func (r *postRepository) List(_ context.Context, page model.Page) ([]model.Post, int, error) {
	r.db.mu.RLock()
	live := make([]model.Post, 0, len(r.db.posts))
	for _, p := range r.db.posts {
		if !p.IsDeleted() {
			live = append(live, p)
		}
	}
	r.db.mu.RUnlock()

	posts, total := paginate(live, page, func(a, b model.Post) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID.String() > b.ID.String()
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return posts, total, nil
}

func (r *postRepository) Update(_ context.Context, p *model.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.posts[p.ID]
	if !ok || existing.IsDeleted() {
		return model.ErrPostNotFound
	}
	existing.Title = p.Title
	existing.Body = p.Body
	existing.UpdatedAt = p.UpdatedAt
	r.db.posts[p.ID] = existing
	return nil
}

func (r *postRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.posts[id]
	if !ok || p.IsDeleted() {
		return model.ErrPostNotFound
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	r.db.posts[id] = p
	return nil
}
