package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"quillpress/internal/model"
)

type moderationLogRepository struct {
	db *sqlx.DB
}

func NewModerationLogRepository(db *sqlx.DB) ModerationLogRepository {
	return &moderationLogRepository{db: db}
}

// Append writes one audit entry. Entries are never updated.
func (r *moderationLogRepository) Append(ctx context.Context, entry *model.ModerationLog) error {
	return insertModerationLog(ctx, r.db, entry)
}

// ListByComment returns a comment's audit trail in the order it was written.
func (r *moderationLogRepository) ListByComment(ctx context.Context, commentID uuid.UUID) ([]model.ModerationLog, error) {
	entries := []model.ModerationLog{}
	query := `
		SELECT id, comment_id, moderator_id, action, reason, created_at
		FROM moderation_logs
		WHERE comment_id = $1
		ORDER BY created_at ASC, id ASC
	`
	if err := r.db.SelectContext(ctx, &entries, query, commentID); err != nil {
		return nil, model.DatabaseError("list moderation logs", err)
	}
	return entries, nil
}

func insertModerationLog(ctx context.Context, ext sqlx.ExtContext, entry *model.ModerationLog) error {
	query := `
		INSERT INTO moderation_logs (id, comment_id, moderator_id, action, reason, created_at)
		VALUES (:id, :comment_id, :moderator_id, :action, :reason, :created_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, entry); err != nil {
		return model.DatabaseError("insert moderation log", err)
	}
	return nil
}
