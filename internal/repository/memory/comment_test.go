package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillpress/internal/model"
)

func newComment(postID uuid.UUID, parentID *uuid.UUID, at time.Time) *model.Comment {
	return &model.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		ParentID:  parentID,
		Content:   "hello",
		Status:    model.StatusPending,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func approve(t *testing.T, store commentStore, id uuid.UUID) {
	t.Helper()
	_, err := store.Moderate(context.Background(), id, model.StatusApproved, time.Now(), &model.ModerationLog{
		ID: uuid.New(), CommentID: id, ModeratorID: uuid.New(), Action: model.ActionApprove, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

type commentStore interface {
	Moderate(ctx context.Context, id uuid.UUID, status model.CommentStatus, at time.Time, entry *model.ModerationLog) (*model.Comment, error)
}

func TestCommentRepository_ReplyDepth(t *testing.T) {
	// ARRANGE
	ctx := context.Background()
	store := NewStore()
	repo := store.Comments
	postID := uuid.New()
	now := time.Now()

	root := newComment(postID, nil, now)
	require.NoError(t, repo.Create(ctx, root))
	approve(t, repo, root.ID)

	// ACT
	child := newComment(postID, &root.ID, now.Add(time.Second))
	require.NoError(t, repo.Create(ctx, child))
	approve(t, repo, child.ID)

	grandchild := newComment(postID, &child.ID, now.Add(2*time.Second))
	require.NoError(t, repo.Create(ctx, grandchild))
	approve(t, repo, grandchild.ID)

	tooDeep := newComment(postID, &grandchild.ID, now.Add(3*time.Second))
	err := repo.Create(ctx, tooDeep)

	// ASSERT
	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, 1, child.Depth)
	assert.Equal(t, 2, grandchild.Depth)
	assert.ErrorIs(t, err, model.ErrMaxNestingLevel)

	_, err = repo.Get(ctx, tooDeep.ID)
	assert.ErrorIs(t, err, model.ErrCommentNotFound)
}

func TestCommentRepository_ReplyRejections(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Comments
	postID := uuid.New()

	pending := newComment(postID, nil, time.Now())
	require.NoError(t, repo.Create(ctx, pending))

	t.Run("pending parent", func(t *testing.T) {
		err := repo.Create(ctx, newComment(postID, &pending.ID, time.Now()))
		assert.ErrorIs(t, err, model.ErrParentNotApproved)
	})

	t.Run("unknown parent", func(t *testing.T) {
		missing := uuid.New()
		err := repo.Create(ctx, newComment(postID, &missing, time.Now()))
		assert.ErrorIs(t, err, model.ErrParentNotFound)
	})

	t.Run("parent on another post", func(t *testing.T) {
		approve(t, repo, pending.ID)
		err := repo.Create(ctx, newComment(uuid.New(), &pending.ID, time.Now()))
		assert.ErrorIs(t, err, model.ErrParentMismatch)
	})

	t.Run("deleted parent", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, pending.ID))
		err := repo.Create(ctx, newComment(postID, &pending.ID, time.Now()))
		assert.ErrorIs(t, err, model.ErrParentNotFound)
	})
}

func TestCommentRepository_Moderate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	c := newComment(uuid.New(), nil, time.Now())
	require.NoError(t, store.Comments.Create(ctx, c))

	at := time.Now()
	entry := &model.ModerationLog{ID: uuid.New(), CommentID: c.ID, ModeratorID: uuid.New(), Action: model.ActionReject, CreatedAt: at}
	got, err := store.Comments.Moderate(ctx, c.ID, model.StatusRejected, at, entry)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)

	_, err = store.Comments.Moderate(ctx, c.ID, model.StatusApproved, at, entry)
	assert.ErrorIs(t, err, model.ErrAlreadyModerated)

	logs, err := store.Moderation.ListByComment(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	require.NoError(t, store.Comments.Delete(ctx, c.ID))
	_, err = store.Comments.Moderate(ctx, c.ID, model.StatusApproved, at, entry)
	assert.ErrorIs(t, err, model.ErrCommentDeleted)
}

func TestCommentRepository_ListingAndCounts(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Comments
	postID := uuid.New()
	author := uuid.New()
	base := time.Now()

	var roots []*model.Comment
	for i := 0; i < 5; i++ {
		c := newComment(postID, nil, base.Add(time.Duration(i)*time.Second))
		if i%2 == 0 {
			c.AuthorID = &author
		}
		require.NoError(t, repo.Create(ctx, c))
		roots = append(roots, c)
	}
	require.NoError(t, repo.Create(ctx, newComment(uuid.New(), nil, base)))
	approve(t, repo, roots[0].ID)

	r1 := newComment(postID, &roots[0].ID, base.Add(10*time.Second))
	r2 := newComment(postID, &roots[0].ID, base.Add(11*time.Second))
	require.NoError(t, repo.Create(ctx, r1))
	require.NoError(t, repo.Create(ctx, r2))
	require.NoError(t, repo.Delete(ctx, r2.ID))

	t.Run("oldest first with totals", func(t *testing.T) {
		got, total, err := repo.ListByPost(ctx, postID, model.CommentFilters{}, model.NewPage(1, 3))
		require.NoError(t, err)
		assert.Equal(t, 7, total)
		require.Len(t, got, 3)
		assert.Equal(t, roots[0].ID, got[0].ID)
		assert.Equal(t, roots[2].ID, got[2].ID)
	})

	t.Run("page past the end", func(t *testing.T) {
		got, total, err := repo.ListByPost(ctx, postID, model.CommentFilters{}, model.NewPage(9, 3))
		require.NoError(t, err)
		assert.Equal(t, 7, total)
		assert.Empty(t, got)
	})

	t.Run("filters", func(t *testing.T) {
		approved := model.StatusApproved
		got, total, err := repo.ListByPost(ctx, postID, model.CommentFilters{Status: &approved}, model.NewPage(1, 20))
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, roots[0].ID, got[0].ID)

		_, total, err = repo.ListByPost(ctx, postID, model.CommentFilters{AuthorID: &author}, model.NewPage(1, 20))
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	t.Run("live only", func(t *testing.T) {
		pending := model.StatusPending
		_, total, err := repo.ListByPost(ctx, postID, model.CommentFilters{Status: &pending}, model.NewPage(1, 20))
		require.NoError(t, err)
		assert.Equal(t, 6, total)

		got, total, err := repo.ListByPost(ctx, postID, model.CommentFilters{Status: &pending, LiveOnly: true}, model.NewPage(1, 20))
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Len(t, got, 5)
		for _, c := range got {
			assert.NotEqual(t, r2.ID, c.ID)
		}
	})

	t.Run("replies", func(t *testing.T) {
		got, total, err := repo.ListReplies(ctx, roots[0].ID, model.NewPage(1, 20))
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, r1.ID, got[0].ID)

		counts, err := repo.CountReplies(ctx, []uuid.UUID{roots[0].ID, roots[1].ID})
		require.NoError(t, err)
		assert.Equal(t, 1, counts[roots[0].ID])
		assert.Equal(t, 0, counts[roots[1].ID])
	})
}

func TestCommentRepository_ConcurrentRepliesAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Comments
	postID := uuid.New()

	parent := newComment(postID, nil, time.Now())
	require.NoError(t, repo.Create(ctx, parent))
	approve(t, repo, parent.ID)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var created []uuid.UUID
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newComment(postID, &parent.ID, time.Now())
			if err := repo.Create(ctx, c); err == nil {
				mu.Lock()
				created = append(created, c.ID)
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, model.ErrParentNotFound)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, repo.Delete(ctx, parent.ID))
	}()
	wg.Wait()

	// Every reply that made it in was accepted while the parent was live.
	for _, id := range created {
		c, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Depth)
	}
}
