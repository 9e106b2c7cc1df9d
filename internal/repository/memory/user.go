package memory

import (
	"context"

	"github.com/google/uuid"

	"quillpress/internal/model"
)

type userRepository struct {
	db *db
}

func (r *userRepository) Create(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return model.ErrEmailExists
		}
		if existing.Username == u.Username {
			return model.ErrUsernameExists
		}
	}
	r.db.users[u.ID] = *u
	return nil
}

func (r *userRepository) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *userRepository) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r *userRepository) find(match func(*model.User) bool) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if match(&u) {
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *userRepository) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	result := make(map[uuid.UUID]*model.User, len(ids))
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			result[id] = &u
		}
	}
	return result, nil
}

func (r *userRepository) List(_ context.Context, page model.Page) ([]model.User, int, error) {
	r.db.mu.RLock()
	all := make([]model.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		all = append(all, u)
	}
	r.db.mu.RUnlock()

	users, total := paginate(all, page, func(a, b model.User) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID.String() < b.ID.String()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return users, total, nil
}

func (r *userRepository) Update(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.users[u.ID]
	if !ok {
		return model.ErrUserNotFound
	}
	existing.DisplayName = u.DisplayName
	existing.Bio = u.Bio
	existing.AvatarURL = u.AvatarURL
	existing.AvatarKey = u.AvatarKey
	existing.Role = u.Role
	existing.UpdatedAt = u.UpdatedAt
	r.db.users[u.ID] = existing
	return nil
}

// Delete removes the user and detaches their comments, matching ON DELETE SET NULL.
func (r *userRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(r.db.users, id)
	for cid, c := range r.db.comments {
		if c.AuthorID != nil && *c.AuthorID == id {
			c.AuthorID = nil
			r.db.comments[cid] = c
		}
	}
	return nil
}
