package memory

import (
	"context"

	"github.com/google/uuid"

	"quillpress/internal/model"
)

type moderationLogRepository struct {
	db *db
}

func (r *moderationLogRepository) Append(_ context.Context, entry *model.ModerationLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.logs = append(r.db.logs, *entry)
	return nil
}

func (r *moderationLogRepository) ListByComment(_ context.Context, commentID uuid.UUID) ([]model.ModerationLog, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	entries := []model.ModerationLog{}
	for _, e := range r.db.logs {
		if e.CommentID == commentID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
