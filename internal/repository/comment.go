package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"quillpress/internal/model"
)

const commentColumns = `id, post_id, author_id, parent_id, depth, content, status, created_at, updated_at, deleted_at`

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment. For replies the parent row is locked with
// FOR UPDATE so a concurrent delete or moderation cannot slip between the
// parent checks and the insert.
func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.DatabaseError("begin transaction", err)
	}
	defer tx.Rollback()

	c.Depth = 0
	if c.ParentID != nil {
		var parent *model.Comment
		locked, err := getComment(ctx, tx, *c.ParentID, true)
		switch {
		case err == nil:
			parent = locked
		case !errors.Is(err, model.ErrCommentNotFound):
			return err
		}
		depth, err := model.CheckReplyParent(parent, c)
		if err != nil {
			return err
		}
		c.Depth = depth
	}

	query := `
		INSERT INTO comments (id, post_id, author_id, parent_id, depth, content, status, created_at, updated_at)
		VALUES (:id, :post_id, :author_id, :parent_id, :depth, :content, :status, :created_at, :updated_at)
	`
	if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
		return model.DatabaseError("insert comment", err)
	}

	if err := tx.Commit(); err != nil {
		return model.DatabaseError("commit transaction", err)
	}
	return nil
}

// Get retrieves a comment, tombstones included.
func (r *commentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	return getComment(ctx, r.db, id, false)
}

func getComment(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID, forUpdate bool) (*model.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var c model.Comment
	err := sqlx.GetContext(ctx, q, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, model.DatabaseError("get comment", err)
	}
	return &c, nil
}

// List returns every comment across posts, oldest first.
func (r *commentRepository) List(ctx context.Context, page model.Page) ([]model.Comment, int, error) {
	return r.listWhere(ctx, "TRUE", nil, page)
}

// ListByPost returns comments of a post, oldest first, narrowed by filters.
func (r *commentRepository) ListByPost(ctx context.Context, postID uuid.UUID, filters model.CommentFilters, page model.Page) ([]model.Comment, int, error) {
	conds := []string{"post_id = $1"}
	args := []any{postID}
	if filters.Status != nil {
		args = append(args, string(*filters.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.AuthorID != nil {
		args = append(args, *filters.AuthorID)
		conds = append(conds, fmt.Sprintf("author_id = $%d", len(args)))
	}
	if filters.LiveOnly {
		conds = append(conds, "deleted_at IS NULL")
	}
	return r.listWhere(ctx, strings.Join(conds, " AND "), args, page)
}

// ListReplies returns the direct replies of a comment, oldest first.
func (r *commentRepository) ListReplies(ctx context.Context, parentID uuid.UUID, page model.Page) ([]model.Comment, int, error) {
	return r.listWhere(ctx, "parent_id = $1", []any{parentID}, page)
}

func (r *commentRepository) listWhere(ctx context.Context, where string, args []any, page model.Page) ([]model.Comment, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM comments WHERE `+where, args...); err != nil {
		return nil, 0, model.DatabaseError("count comments", err)
	}

	n := len(args)
	query := fmt.Sprintf(`
		SELECT %s
		FROM comments
		WHERE %s
		ORDER BY created_at ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, commentColumns, where, n+1, n+2)

	comments := []model.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, append(args, page.Limit(), page.Offset())...); err != nil {
		return nil, 0, model.DatabaseError("list comments", err)
	}
	return comments, total, nil
}

// CountReplies returns the number of live direct replies for each id.
func (r *commentRepository) CountReplies(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	rows := []struct {
		ParentID uuid.UUID `db:"parent_id"`
		Count    int       `db:"count"`
	}{}
	query := `
		SELECT parent_id, COUNT(*) AS count
		FROM comments
		WHERE parent_id = ANY($1::uuid[]) AND deleted_at IS NULL
		GROUP BY parent_id
	`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(uuidStrings(ids))); err != nil {
		return nil, model.DatabaseError("count replies", err)
	}
	for _, row := range rows {
		counts[row.ParentID] = row.Count
	}
	return counts, nil
}

// Update replaces the content of a live comment.
func (r *commentRepository) Update(ctx context.Context, c *model.Comment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE comments SET content = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`, c.Content, c.UpdatedAt, c.ID)
	if err != nil {
		return model.DatabaseError("update comment", err)
	}
	if err := requireAffected(res, model.ErrCommentNotFound); err != nil {
		return r.explainMiss(ctx, c.ID, err)
	}
	return nil
}

// Delete marks a comment as deleted. Replies keep pointing at the tombstone.
func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE comments SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`, now, id)
	if err != nil {
		return model.DatabaseError("delete comment", err)
	}
	if err := requireAffected(res, model.ErrCommentNotFound); err != nil {
		return r.explainMiss(ctx, id, err)
	}
	return nil
}

// Moderate applies a pending -> status transition and its audit entry in
// one transaction.
func (r *commentRepository) Moderate(ctx context.Context, id uuid.UUID, status model.CommentStatus, at time.Time, entry *model.ModerationLog) (*model.Comment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, model.DatabaseError("begin transaction", err)
	}
	defer tx.Rollback()

	c, err := getComment(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted() {
		return nil, model.ErrCommentDeleted
	}
	if c.Status != model.StatusPending {
		return nil, model.ErrAlreadyModerated
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE comments SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), at, id); err != nil {
		return nil, model.DatabaseError("update comment status", err)
	}
	if err := insertModerationLog(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, model.DatabaseError("commit transaction", err)
	}

	c.Status = status
	c.UpdatedAt = at
	return c, nil
}

// explainMiss turns a zero-row write into NotFound or CommentDeleted.
func (r *commentRepository) explainMiss(ctx context.Context, id uuid.UUID, miss error) error {
	c, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.IsDeleted() {
		return model.ErrCommentDeleted
	}
	return miss
}
