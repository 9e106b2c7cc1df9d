package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillpress/internal/auth"
	"quillpress/internal/handler"
	"quillpress/internal/httputil"
	"quillpress/internal/model"
	"quillpress/internal/repository"
	"quillpress/internal/repository/memory"
	"quillpress/internal/service"
	transport "quillpress/internal/transport/http"
)

// =============================================================================
// HARNESS
// =============================================================================

type harness struct {
	t      *testing.T
	store  *repository.Store
	router http.Handler
}

// newHarness wires the full router over the in-memory store, without Redis
// and without object storage.
func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	codec, err := auth.NewCodec("router-test-secret", time.Hour)
	require.NoError(t, err)

	authService := service.NewAuthService(store.Users, codec)
	commentService := service.NewCommentService(store.Comments, store.Posts, store.Users, nil)
	moderationService := service.NewModerationService(store.Comments, store.Moderation, store.Users, nil, nil)

	router := transport.NewRouter(transport.RouterConfig{
		AuthHandler:       handler.NewAuthHandler(authService),
		UserHandler:       handler.NewUserHandler(service.NewUserService(store.Users)),
		PostHandler:       handler.NewPostHandler(service.NewPostService(store.Posts)),
		CommentHandler:    handler.NewCommentHandler(commentService),
		ModerationHandler: handler.NewModerationHandler(moderationService, commentService),
		MediaHandler:      handler.NewMediaHandler(service.NewMediaService(nil, store.Users)),
		Resolver:          auth.NewResolver(codec),
		Moderators:        moderationService,
	})
	return &harness{t: t, store: store, router: router}
}

func (h *harness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// register creates an account and returns its token and id.
func (h *harness) register(name string) (string, uuid.UUID) {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/auth/register", "", model.RegisterRequest{
		Email:    name + "@example.com",
		Username: name,
		Password: "correct-horse",
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[model.AuthResponse](h.t, rec)
	return resp.Token, resp.User.ID
}

func (h *harness) promote(id uuid.UUID) {
	h.t.Helper()
	ctx := context.Background()
	u, err := h.store.Users.Get(ctx, id)
	require.NoError(h.t, err)
	u.Role = model.RoleModerator
	require.NoError(h.t, h.store.Users.Update(ctx, u))
}

func (h *harness) createPost(token string) model.Post {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/posts", token, model.CreatePostRequest{Title: "First", Body: "Body"})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Post](h.t, rec)
}

func (h *harness) comment(path, token string, body interface{}) model.CommentView {
	h.t.Helper()
	rec := h.do(http.MethodPost, path, token, body)
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.CommentResponse](h.t, rec).Comment
}

func (h *harness) moderate(token string, id uuid.UUID, action model.ModerationAction) *httptest.ResponseRecorder {
	h.t.Helper()
	return h.do(http.MethodPost, "/comments/"+id.String()+"/moderate", token, model.ModerateCommentRequest{Action: action})
}

func assertEnvelope(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[httputil.ErrorResponse](t, rec)
	assert.Equal(t, status, body.Error.Code)
	assert.NotEmpty(t, body.Error.Message)
}

// =============================================================================
// TESTS
// =============================================================================

func TestRouter_Health(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_AuthFlow(t *testing.T) {
	h := newHarness(t)
	token, id := h.register("alice")

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/auth/register", "", model.RegisterRequest{
			Email: "ALICE@example.com", Username: "alice2", Password: "correct-horse",
		})
		assertEnvelope(t, rec, http.StatusConflict)
	})

	t.Run("login", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/auth/login", "", model.LoginRequest{Email: "alice@example.com", Password: "correct-horse"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decode[model.AuthResponse](t, rec).Token)

		rec = h.do(http.MethodPost, "/auth/login", "", model.LoginRequest{Email: "alice@example.com", Password: "wrong-horse"})
		assertEnvelope(t, rec, http.StatusUnauthorized)
	})

	t.Run("validate", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/auth/validate", "", model.ValidateTokenRequest{Token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), id.String())

		rec = h.do(http.MethodPost, "/auth/validate", "", model.ValidateTokenRequest{Token: token + "x"})
		assertEnvelope(t, rec, http.StatusUnauthorized)
	})

	t.Run("me", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, id, decode[model.User](t, rec).ID)
		assert.NotContains(t, rec.Body.String(), "password")

		assertEnvelope(t, h.do(http.MethodGet, "/me", "", nil), http.StatusUnauthorized)
	})

	t.Run("public profile hides email", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/users/alice", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "alice@example.com")

		assertEnvelope(t, h.do(http.MethodGet, "/users/nobody", "", nil), http.StatusNotFound)
	})
}

func TestRouter_OwnershipGuard(t *testing.T) {
	h := newHarness(t)
	ownerToken, ownerID := h.register("owner")
	otherToken, _ := h.register("other")
	post := h.createPost(ownerToken)
	postPath := "/posts/" + post.ID.String()
	title := "Edited"

	assertEnvelope(t, h.do(http.MethodPut, postPath, "", model.UpdatePostRequest{Title: &title}), http.StatusUnauthorized)
	assertEnvelope(t, h.do(http.MethodPut, postPath, otherToken, model.UpdatePostRequest{Title: &title}), http.StatusForbidden)
	assertEnvelope(t, h.do(http.MethodDelete, postPath, otherToken, nil), http.StatusForbidden)

	bio := "hi"
	assertEnvelope(t, h.do(http.MethodPut, "/users/"+ownerID.String(), otherToken, model.UpdateProfileRequest{Bio: &bio}), http.StatusForbidden)
	rec := h.do(http.MethodPut, "/users/"+ownerID.String(), ownerToken, model.UpdateProfileRequest{Bio: &bio})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPut, postPath, ownerToken, model.UpdatePostRequest{Title: &title})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Edited", decode[model.Post](t, rec).Title)

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, postPath, ownerToken, nil).Code)
	assertEnvelope(t, h.do(http.MethodGet, postPath, "", nil), http.StatusNotFound)
}

func TestRouter_CommentLifecycle(t *testing.T) {
	h := newHarness(t)
	authorToken, _ := h.register("author")
	otherToken, _ := h.register("other")
	modToken, modID := h.register("mod")
	h.promote(modID)
	post := h.createPost(authorToken)

	// Scenario A: top-level comment starts pending
	top := h.comment("/posts/"+post.ID.String()+"/comments", authorToken, model.CreateCommentRequest{Content: "hello"})
	assert.Equal(t, model.StatusPending, top.Status)
	assert.Nil(t, top.ParentID)

	// replies to a pending parent are rejected
	rec := h.do(http.MethodPost, "/comments/"+top.ID.String()+"/replies", otherToken, model.UpdateCommentRequest{Content: "too soon"})
	assertEnvelope(t, rec, http.StatusBadRequest)

	// only moderators moderate
	assertEnvelope(t, h.moderate(otherToken, top.ID, model.ActionApprove), http.StatusForbidden)
	assertEnvelope(t, h.moderate("", top.ID, model.ActionApprove), http.StatusUnauthorized)

	rec = h.moderate(modToken, top.ID, model.ActionApprove)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.StatusApproved, decode[model.CommentResponse](t, rec).Comment.Status)

	assertEnvelope(t, h.moderate(modToken, top.ID, model.ActionReject), http.StatusConflict)
	assertEnvelope(t, h.moderate(modToken, top.ID, "promote"), http.StatusBadRequest)

	rec = h.do(http.MethodGet, "/comments/"+top.ID.String()+"/moderation-log", modToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[model.ModerationLogResponse](t, rec)
	require.Len(t, history.Entries, 1)
	assert.Equal(t, modID, history.Entries[0].ModeratorID)

	// anonymous reply to the approved comment
	reply := h.comment("/comments/"+top.ID.String()+"/replies", "", model.UpdateCommentRequest{Content: "anon"})
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)
	assert.Nil(t, reply.Author)

	// edits are owner-only; anonymous comments have no owner
	path := "/comments/" + top.ID.String()
	assertEnvelope(t, h.do(http.MethodPut, path, otherToken, model.UpdateCommentRequest{Content: "mine"}), http.StatusForbidden)
	assertEnvelope(t, h.do(http.MethodPut, "/comments/"+reply.ID.String(), authorToken, model.UpdateCommentRequest{Content: "mine"}), http.StatusForbidden)
	rec = h.do(http.MethodPut, path, authorToken, model.UpdateCommentRequest{Content: "hello, edited"})
	require.Equal(t, http.StatusOK, rec.Code)
	edited := decode[model.CommentResponse](t, rec).Comment
	assert.Equal(t, "hello, edited", edited.Content)
	assert.Equal(t, model.StatusApproved, edited.Status)
	assert.Equal(t, 1, edited.RepliesCount)

	// delete leaves a tombstone
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, path, authorToken, nil).Code)
	assertEnvelope(t, h.do(http.MethodGet, path, "", nil), http.StatusGone)
	assertEnvelope(t, h.do(http.MethodDelete, path, authorToken, nil), http.StatusGone)
	assertEnvelope(t, h.moderate(modToken, top.ID, model.ActionApprove), http.StatusGone)

	rec = h.do(http.MethodGet, "/posts/"+post.ID.String()+"/comments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[model.CommentListResponse](t, rec)
	require.Len(t, list.Comments, 2)
	assert.True(t, list.Comments[0].Deleted)
	assert.Empty(t, list.Comments[0].Content)

	rec = h.do(http.MethodGet, "/comments/"+top.ID.String()+"/replies", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[model.CommentListResponse](t, rec).Comments, 1)
}

func TestRouter_CommentErrors(t *testing.T) {
	h := newHarness(t)
	token, _ := h.register("author")
	post := h.createPost(token)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"unknown post", http.MethodPost, "/comments", model.CreateCommentRequest{PostID: uuid.New(), Content: "x"}, http.StatusNotFound},
		{"unknown parent", http.MethodPost, "/comments", model.CreateCommentRequest{PostID: post.ID, ParentID: uuidPtr(uuid.New()), Content: "x"}, http.StatusNotFound},
		{"empty content", http.MethodPost, "/comments", model.CreateCommentRequest{PostID: post.ID}, http.StatusBadRequest},
		{"bad comment id", http.MethodGet, "/comments/not-a-uuid", nil, http.StatusBadRequest},
		{"missing comment", http.MethodGet, "/comments/" + uuid.New().String(), nil, http.StatusNotFound},
		{"bad status filter", http.MethodGet, "/posts/" + post.ID.String() + "/comments?status=archived", nil, http.StatusBadRequest},
		{"bad author filter", http.MethodGet, "/posts/" + post.ID.String() + "/comments?author_id=bob", nil, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertEnvelope(t, h.do(tc.method, tc.path, "", tc.body), tc.status)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/comments", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)
		assertEnvelope(t, rec, http.StatusBadRequest)
	})

	t.Run("out of range page", func(t *testing.T) {
		h.comment("/comments", token, model.CreateCommentRequest{PostID: post.ID, Content: "one"})

		rec := h.do(http.MethodGet, "/posts/"+post.ID.String()+"/comments?page=5&per_page=10", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[model.CommentListResponse](t, rec)
		assert.Empty(t, list.Comments)
		assert.Equal(t, 1, list.Pagination.Total)
		assert.Equal(t, 1, list.Pagination.TotalPages)
	})
}

func TestRouter_ModerationQueueWithoutRedis(t *testing.T) {
	h := newHarness(t)
	token, _ := h.register("author")
	modToken, modID := h.register("mod")
	h.promote(modID)
	post := h.createPost(token)
	c := h.comment("/comments", token, model.CreateCommentRequest{PostID: post.ID, Content: "review me"})

	assertEnvelope(t, h.do(http.MethodGet, "/moderation/queue", modToken, nil), http.StatusBadRequest)
	assertEnvelope(t, h.do(http.MethodGet, "/moderation/queue?post_id="+post.ID.String(), token, nil), http.StatusForbidden)

	rec := h.do(http.MethodGet, "/moderation/queue?post_id="+post.ID.String(), modToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{c.ID}, decode[model.ModerationQueueResponse](t, rec).CommentIDs)
}

func TestRouter_AvatarWithoutStorage(t *testing.T) {
	h := newHarness(t)
	token, id := h.register("author")

	var body bytes.Buffer
	body.WriteString("--b\r\nContent-Disposition: form-data; name=\"avatar\"; filename=\"a.png\"\r\nContent-Type: image/png\r\n\r\nxx\r\n--b--\r\n")
	req := httptest.NewRequest(http.MethodPut, "/users/"+id.String()+"/avatar", &body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	assertEnvelope(t, rec, http.StatusServiceUnavailable)
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
