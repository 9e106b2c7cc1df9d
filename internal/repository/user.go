package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"quillpress/internal/model"
)

const userColumns = `id, email, username, password_hash, display_name, bio, avatar_url, avatar_key, role, created_at, updated_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. The caller sets ID and timestamps.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :email, :username, :password_hash, :display_name, :bio, :avatar_url, :avatar_key, :role, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, u); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			switch pqErr.Constraint {
			case "users_email_key":
				return model.ErrEmailExists
			case "users_username_key":
				return model.ErrUsernameExists
			}
		}
		return model.DatabaseError("insert user", err)
	}
	return nil
}

// Get retrieves a user by id
func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail retrieves a user by email, used for login
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *userRepository) getBy(ctx context.Context, column string, value any) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, model.DatabaseError("get user by "+column, err)
	}
	return &u, nil
}

// GetByIDs batch loads users for author enrichment.
func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error) {
	result := make(map[uuid.UUID]*model.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &users, query, pq.Array(uuidStrings(ids))); err != nil {
		return nil, model.DatabaseError("get users by ids", err)
	}
	for i := range users {
		result[users[i].ID] = &users[i]
	}
	return result, nil
}

// List returns users ordered by creation time.
func (r *userRepository) List(ctx context.Context, page model.Page) ([]model.User, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, model.DatabaseError("count users", err)
	}

	users := []model.User{}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &users, query, page.Limit(), page.Offset()); err != nil {
		return nil, 0, model.DatabaseError("list users", err)
	}
	return users, total, nil
}

// Update writes the mutable profile fields.
func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	query := `
		UPDATE users
		SET display_name = :display_name, bio = :bio, avatar_url = :avatar_url,
		    avatar_key = :avatar_key, role = :role, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := r.db.NamedExecContext(ctx, query, u)
	if err != nil {
		return model.DatabaseError("update user", err)
	}
	return requireAffected(res, model.ErrUserNotFound)
}

// Delete removes the account. Comments keep their rows with a NULL author.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return model.DatabaseError("delete user", err)
	}
	return requireAffected(res, model.ErrUserNotFound)
}
