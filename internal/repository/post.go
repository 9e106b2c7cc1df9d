package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"quillpress/internal/model"
)

const postColumns = `id, owner_id, title, body, created_at, updated_at, deleted_at`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post.
func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	query := `
		INSERT INTO posts (id, owner_id, title, body, created_at, updated_at)
		VALUES (:id, :owner_id, :title, :body, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return model.DatabaseError("insert post", err)
	}
	return nil
}

// Get retrieves a single live post.
func (r *postRepository) Get(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND deleted_at IS NULL`

	var post model.Post
	err := r.db.GetContext(ctx, &post, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, model.DatabaseError("get post", err)
	}
	return &post, nil
}

// List returns live posts, newest first.
func (r *postRepository) List(ctx context.Context, page model.Page) ([]model.Post, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM posts WHERE deleted_at IS NULL`); err != nil {
		return nil, 0, model.DatabaseError("count posts", err)
	}

	posts := []model.Post{}
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &posts, query, page.Limit(), page.Offset()); err != nil {
		return nil, 0, model.DatabaseError("list posts", err)
	}
	return posts, total, nil
}

// Update writes title and body of a live post.
func (r *postRepository) Update(ctx context.Context, p *model.Post) error {
	query := `
		UPDATE posts SET title = :title, body = :body, updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL
	`
	res, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return model.DatabaseError("update post", err)
	}
	return requireAffected(res, model.ErrPostNotFound)
}

// Delete soft-deletes a post. Its comments stay in place.
func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE posts SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return model.DatabaseError("delete post", err)
	}
	return requireAffected(res, model.ErrPostNotFound)
}
