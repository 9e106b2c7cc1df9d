package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillpress/internal/model"
	"quillpress/internal/queue"
)

// =============================================================================
// CREATE
// =============================================================================

func TestCommentService_Create_TopLevelIsPending(t *testing.T) {
	// ARRANGE
	f := newFixture(t)

	// ACT
	v, err := f.comments.Create(context.Background(), &f.owner.ID, model.CreateCommentRequest{
		PostID:  f.post.ID,
		Content: "hello",
	})

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, v.Status)
	assert.Nil(t, v.ParentID)
	assert.Equal(t, "hello", v.Content)
	require.NotNil(t, v.Author)
	assert.Equal(t, "owner", v.Author.Username)
	assert.Equal(t, []string{queue.EventCommentCreated}, f.publisher.types())
}

func TestCommentService_Create_Anonymous(t *testing.T) {
	f := newFixture(t)

	v, err := f.comments.Create(context.Background(), nil, model.CreateCommentRequest{PostID: f.post.ID, Content: "drive-by"})
	require.NoError(t, err)
	assert.Nil(t, v.Author)

	// Nobody owns an anonymous comment, so nobody may edit it.
	_, err = f.comments.Update(context.Background(), f.owner, v.ID, model.UpdateCommentRequest{Content: "mine now"})
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestCommentService_Create_NestingLimit(t *testing.T) {
	// A reply to a parent with d ancestors succeeds iff d < MaxNestingLevel-1,
	// i.e. the new comment would have fewer than MaxNestingLevel ancestors.
	tests := []struct {
		name      string
		chain     int
		expectErr error
	}{
		{name: "reply to top-level", chain: 1},
		{name: "reply to depth 1", chain: 2},
		{name: "reply to depth 2", chain: 3, expectErr: model.ErrMaxNestingLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			parent := f.approvedChain(t, tt.chain)

			v, err := f.comments.Create(context.Background(), &f.other.ID, model.CreateCommentRequest{
				PostID:   f.post.ID,
				ParentID: &parent.ID,
				Content:  "reply",
			})

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, parent.ID, *v.ParentID)
			assert.Equal(t, model.StatusPending, v.Status)
		})
	}
}

func TestCommentService_Create_ParentRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.comment(t, nil, "awaiting review")

	t.Run("pending parent", func(t *testing.T) {
		_, err := f.comments.Create(ctx, &f.other.ID, model.CreateCommentRequest{PostID: f.post.ID, ParentID: &pending.ID, Content: "hi"})
		assert.ErrorIs(t, err, model.ErrParentNotApproved)
	})

	t.Run("rejected parent", func(t *testing.T) {
		rejected := f.comment(t, nil, "nope")
		_, err := f.moderation.Moderate(ctx, f.moderator, rejected.ID, model.ModerateCommentRequest{Action: model.ActionReject})
		require.NoError(t, err)

		_, err = f.comments.Create(ctx, &f.other.ID, model.CreateCommentRequest{PostID: f.post.ID, ParentID: &rejected.ID, Content: "hi"})
		assert.ErrorIs(t, err, model.ErrParentNotApproved)
	})

	t.Run("missing parent", func(t *testing.T) {
		missing := uuid.New()
		_, err := f.comments.Create(ctx, &f.other.ID, model.CreateCommentRequest{PostID: f.post.ID, ParentID: &missing, Content: "hi"})
		assert.ErrorIs(t, err, model.ErrParentNotFound)
	})

	t.Run("parent on another post", func(t *testing.T) {
		f.approve(t, pending.ID)
		other, err := f.posts.Create(ctx, f.other, model.CreatePostRequest{Title: "Other", Body: "post"})
		require.NoError(t, err)

		_, err = f.comments.Create(ctx, &f.other.ID, model.CreateCommentRequest{PostID: other.ID, ParentID: &pending.ID, Content: "hi"})
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("deleted parent", func(t *testing.T) {
		parent := f.approvedChain(t, 1)
		require.NoError(t, f.comments.Delete(ctx, f.owner, parent.ID))

		_, err := f.comments.Create(ctx, &f.other.ID, model.CreateCommentRequest{PostID: f.post.ID, ParentID: &parent.ID, Content: "hi"})
		assert.ErrorIs(t, err, model.ErrParentNotFound)
	})
}

func TestCommentService_Create_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		content   string
		expectErr bool
	}{
		{name: "empty", content: "", expectErr: true},
		{name: "one char", content: "a"},
		{name: "exactly max", content: strings.Repeat("a", model.MaxCommentLength)},
		{name: "max in multibyte runes", content: strings.Repeat("é", model.MaxCommentLength)},
		{name: "over max", content: strings.Repeat("a", model.MaxCommentLength+1), expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.comments.Create(ctx, &f.owner.ID, model.CreateCommentRequest{PostID: f.post.ID, Content: tt.content})
			if tt.expectErr {
				assert.ErrorIs(t, err, model.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCommentService_Create_ValidationRunsBeforeLookups(t *testing.T) {
	f := newFixture(t)

	_, err := f.comments.Create(context.Background(), &f.owner.ID, model.CreateCommentRequest{PostID: uuid.New(), Content: ""})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Empty(t, f.publisher.types())
}

func TestCommentService_Create_UnknownPost(t *testing.T) {
	f := newFixture(t)

	_, err := f.comments.Create(context.Background(), &f.owner.ID, model.CreateCommentRequest{PostID: uuid.New(), Content: "hi"})
	assert.ErrorIs(t, err, model.ErrPostNotFound)
}

func TestCommentService_Create_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.publishFn = func(context.Context, string, queue.CommentEvent) (string, error) {
		return "", errBrokerDown
	}

	v, err := f.comments.Create(context.Background(), &f.owner.ID, model.CreateCommentRequest{PostID: f.post.ID, Content: "hi"})
	require.NoError(t, err)

	got, err := f.comments.Get(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)
}

// =============================================================================
// UPDATE / DELETE
// =============================================================================

func TestCommentService_Reply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.approvedChain(t, 1)

	t.Run("inherits the parent's post", func(t *testing.T) {
		v, err := f.comments.Reply(ctx, &f.other.ID, parent.ID, "agreed")

		require.NoError(t, err)
		assert.Equal(t, f.post.ID, v.PostID)
		require.NotNil(t, v.ParentID)
		assert.Equal(t, parent.ID, *v.ParentID)
		assert.Equal(t, model.StatusPending, v.Status)
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := f.comments.Reply(ctx, nil, uuid.New(), "hello?")
		assert.ErrorIs(t, err, model.ErrParentNotFound)
	})

	t.Run("content checked first", func(t *testing.T) {
		_, err := f.comments.Reply(ctx, nil, uuid.New(), "")
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("tombstoned parent", func(t *testing.T) {
		gone := f.approvedChain(t, 1)
		require.NoError(t, f.comments.Delete(ctx, f.owner, gone.ID))

		_, err := f.comments.Reply(ctx, nil, gone.ID, "too late")
		assert.ErrorIs(t, err, model.ErrParentNotFound)
	})
}

func TestCommentService_Update_OwnerOnly(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	ctx := context.Background()
	c := f.comment(t, nil, "old")
	f.approve(t, c.ID)

	// ACT: owner edits
	updated, err := f.comments.Update(ctx, f.owner, c.ID, model.UpdateCommentRequest{Content: "new"})

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Content)
	assert.Equal(t, model.StatusApproved, updated.Status, "status survives edits")
	assert.False(t, updated.UpdatedAt.Before(c.UpdatedAt))

	// ACT: someone else edits
	_, err = f.comments.Update(ctx, f.other, c.ID, model.UpdateCommentRequest{Content: "hijack"})

	// ASSERT
	assert.ErrorIs(t, err, model.ErrForbidden)
	got, err := f.comments.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Content)
}

func TestCommentService_Update_InvalidContent(t *testing.T) {
	f := newFixture(t)
	c := f.comment(t, nil, "old")

	_, err := f.comments.Update(context.Background(), f.owner, c.ID, model.UpdateCommentRequest{Content: ""})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCommentService_Delete_Tombstone(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	ctx := context.Background()
	parent := f.approvedChain(t, 1)
	reply := f.comment(t, &parent.ID, "still here")

	// ACT: only the owner can delete
	err := f.comments.Delete(ctx, f.other, parent.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	require.NoError(t, f.comments.Delete(ctx, f.owner, parent.ID))

	// ASSERT: direct reads are gone
	_, err = f.comments.Get(ctx, parent.ID)
	assert.ErrorIs(t, err, model.ErrCommentDeleted)

	// the tombstone keeps its place in listings with content hidden
	list, err := f.comments.List(ctx, f.post.ID, model.CommentFilters{}, model.NewPage(1, 20))
	require.NoError(t, err)
	require.Len(t, list.Comments, 2)
	tomb := list.Comments[0]
	assert.Equal(t, parent.ID, tomb.ID)
	assert.True(t, tomb.Deleted)
	assert.Empty(t, tomb.Content)
	assert.Nil(t, tomb.Author)

	// replies are not cascaded
	replies, err := f.comments.ListReplies(ctx, parent.ID, model.NewPage(1, 20))
	require.NoError(t, err)
	require.Len(t, replies.Comments, 1)
	assert.Equal(t, reply.ID, replies.Comments[0].ID)
	assert.Equal(t, "still here", replies.Comments[0].Content)

	// mutations of a tombstone
	_, err = f.comments.Update(ctx, f.owner, parent.ID, model.UpdateCommentRequest{Content: "revive"})
	assert.ErrorIs(t, err, model.ErrCommentDeleted)
	assert.ErrorIs(t, f.comments.Delete(ctx, f.owner, parent.ID), model.ErrCommentDeleted)

	assert.Contains(t, f.publisher.types(), queue.EventCommentDeleted)
}

func TestCommentService_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := f.comments.Get(ctx, missing)
	assert.ErrorIs(t, err, model.ErrCommentNotFound)
	_, err = f.comments.Update(ctx, f.owner, missing, model.UpdateCommentRequest{Content: "x"})
	assert.ErrorIs(t, err, model.ErrCommentNotFound)
	assert.ErrorIs(t, f.comments.Delete(ctx, f.owner, missing), model.ErrCommentNotFound)
	_, err = f.comments.ListReplies(ctx, missing, model.NewPage(1, 20))
	assert.ErrorIs(t, err, model.ErrCommentNotFound)
}

// =============================================================================
// LIST
// =============================================================================

func TestCommentService_List_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.comment(t, nil, "c")
	}

	page, err := f.comments.List(ctx, f.post.ID, model.CommentFilters{}, model.NewPage(2, 2))
	require.NoError(t, err)
	assert.Len(t, page.Comments, 2)
	assert.Equal(t, model.Pagination{Total: 5, Page: 2, PerPage: 2, TotalPages: 3}, page.Pagination)

	past, err := f.comments.List(ctx, f.post.ID, model.CommentFilters{}, model.NewPage(10, 2))
	require.NoError(t, err)
	assert.Empty(t, past.Comments)
	assert.NotNil(t, past.Comments)
	assert.Equal(t, 5, past.Pagination.Total)
	assert.Equal(t, 3, past.Pagination.TotalPages)
}

func TestCommentService_List_HugePageIsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.comment(t, nil, "c")
	}

	// ACT
	page, err := f.comments.List(ctx, f.post.ID, model.CommentFilters{}, model.NewPage(92233720368547760, 100))

	// ASSERT
	require.NoError(t, err)
	assert.Empty(t, page.Comments)
	assert.NotNil(t, page.Comments)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	assert.Equal(t, model.MaxPage, page.Pagination.Page)
}

func TestCommentService_List_FiltersAndReplyCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.approvedChain(t, 1)
	f.comment(t, &root.ID, "r1")
	f.comment(t, &root.ID, "r2")
	_, err := f.comments.Create(ctx, &f.other.ID, model.CreateCommentRequest{PostID: f.post.ID, Content: "other"})
	require.NoError(t, err)

	approved := model.StatusApproved
	list, err := f.comments.List(ctx, f.post.ID, model.CommentFilters{Status: &approved}, model.NewPage(1, 20))
	require.NoError(t, err)
	require.Len(t, list.Comments, 1)
	assert.Equal(t, root.ID, list.Comments[0].ID)
	assert.Equal(t, 2, list.Comments[0].RepliesCount)

	mine, err := f.comments.List(ctx, f.post.ID, model.CommentFilters{AuthorID: &f.other.ID}, model.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Pagination.Total)
}

func TestCommentService_List_UnknownPost(t *testing.T) {
	f := newFixture(t)

	_, err := f.comments.List(context.Background(), uuid.New(), model.CommentFilters{}, model.NewPage(1, 20))
	assert.ErrorIs(t, err, model.ErrPostNotFound)
}
