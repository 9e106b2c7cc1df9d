package repository

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"quillpress/internal/model"
)

// NewPostgresStore wires the sqlx repositories over one connection pool.
func NewPostgresStore(db *sqlx.DB) *Store {
	return &Store{
		Users:      NewUserRepository(db),
		Posts:      NewPostRepository(db),
		Comments:   NewCommentRepository(db),
		Moderation: NewModerationLogRepository(db),
	}
}

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return model.DatabaseError("rows affected", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
