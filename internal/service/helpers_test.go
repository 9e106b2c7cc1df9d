package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"quillpress/internal/model"
	"quillpress/internal/queue"
	"quillpress/internal/repository"
	"quillpress/internal/repository/memory"
)

// =============================================================================
// MOCKS
// =============================================================================

// mockPublisher records published events. publishFn overrides the result.
type mockPublisher struct {
	mu        sync.Mutex
	publishFn func(ctx context.Context, stream string, event queue.CommentEvent) (string, error)
	events    []queue.CommentEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.CommentEvent) (string, error) {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, stream, event)
	}
	return "1-0", nil
}

func (m *mockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

var errBrokerDown = errors.New("broker down")

// =============================================================================
// FIXTURE
// =============================================================================

type fixture struct {
	store      *repository.Store
	publisher  *mockPublisher
	comments   *CommentService
	moderation *ModerationService
	posts      *PostService

	owner     model.Identity
	other     model.Identity
	moderator model.Identity
	post      *model.Post
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	pub := &mockPublisher{}

	f := &fixture{
		store:      store,
		publisher:  pub,
		comments:   NewCommentService(store.Comments, store.Posts, store.Users, pub),
		moderation: NewModerationService(store.Comments, store.Moderation, store.Users, nil, pub),
		posts:      NewPostService(store.Posts),
	}
	f.owner = f.seedUser(t, "owner", model.RoleUser)
	f.other = f.seedUser(t, "other", model.RoleUser)
	f.moderator = f.seedUser(t, "mod", model.RoleModerator)

	post, err := f.posts.Create(context.Background(), f.owner, model.CreatePostRequest{Title: "Hello", Body: "World"})
	require.NoError(t, err)
	f.post = post
	return f
}

func (f *fixture) seedUser(t *testing.T, name, role string) model.Identity {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{
		ID:        uuid.New(),
		Email:     name + "@example.com",
		Username:  name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return model.Identity{ID: u.ID, Email: u.Email}
}

// comment creates a comment by the fixture owner.
func (f *fixture) comment(t *testing.T, parentID *uuid.UUID, content string) *model.CommentView {
	t.Helper()
	v, err := f.comments.Create(context.Background(), &f.owner.ID, model.CreateCommentRequest{
		PostID:   f.post.ID,
		ParentID: parentID,
		Content:  content,
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) approve(t *testing.T, id uuid.UUID) {
	t.Helper()
	_, err := f.moderation.Moderate(context.Background(), f.moderator, id, model.ModerateCommentRequest{Action: model.ActionApprove})
	require.NoError(t, err)
}

// approvedChain builds an approved chain of n comments and returns the last one.
func (f *fixture) approvedChain(t *testing.T, n int) *model.CommentView {
	t.Helper()
	var parentID *uuid.UUID
	var last *model.CommentView
	for i := 0; i < n; i++ {
		last = f.comment(t, parentID, "link")
		f.approve(t, last.ID)
		id := last.ID
		parentID = &id
	}
	return last
}
