package handler

import (
	"net/http"

	"github.com/google/uuid"

	"quillpress/internal/httputil"
	"quillpress/internal/model"
	"quillpress/internal/service"
	"quillpress/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// Create handles POST /comments. Anonymous callers are allowed.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "create comment", err)
		return
	}
	h.create(w, r, req)
}

// CreateOnPost handles POST /posts/{id}/comments. The path wins over any
// post_id in the body.
func (h *CommentHandler) CreateOnPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := uuidParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "invalid post id")
		return
	}

	var req model.CreateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "create comment", err)
		return
	}
	req.PostID = postID
	h.create(w, r, req)
}

func (h *CommentHandler) create(w http.ResponseWriter, r *http.Request, req model.CreateCommentRequest) {
	comment, err := h.commentService.Create(r.Context(), authorFrom(r), req)
	if err != nil {
		writeServiceError(w, r, "create comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, model.CommentResponse{Comment: *comment})
}

// Reply handles POST /comments/{id}/replies
func (h *CommentHandler) Reply(w http.ResponseWriter, r *http.Request) {
	parentID, ok := uuidParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "invalid comment id")
		return
	}

	var req model.UpdateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "reply", err)
		return
	}

	comment, err := h.commentService.Reply(r.Context(), authorFrom(r), parentID, req.Content)
	if err != nil {
		writeServiceError(w, r, "reply", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, model.CommentResponse{Comment: *comment})
}

// Get handles GET /comments/{id}. A deleted comment is 410.
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	commentID, ok := uuidParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "invalid comment id")
		return
	}

	comment, err := h.commentService.Get(r.Context(), commentID)
	if err != nil {
		writeServiceError(w, r, "get comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, model.CommentResponse{Comment: *comment})
}

// Update handles PUT /comments/{id}
// Updates a comment's content (only owner can update).
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	commentID, ok := uuidParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "invalid comment id")
		return
	}

	var req model.UpdateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "update comment", err)
		return
	}

	comment, err := h.commentService.Update(r.Context(), identity, commentID, req)
	if err != nil {
		writeServiceError(w, r, "update comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, model.CommentResponse{Comment: *comment})
}

// Delete handles DELETE /comments/{id}
// Deletes a comment (only owner can delete).
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	commentID, ok := uuidParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "invalid comment id")
		return
	}

	if err := h.commentService.Delete(r.Context(), identity, commentID); err != nil {
		writeServiceError(w, r, "delete comment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListByPost handles GET /posts/{id}/comments?page=&per_page=&status=&author_id=
func (h *CommentHandler) ListByPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := uuidParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "invalid post id")
		return
	}

	var filters model.CommentFilters
	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		status := model.CommentStatus(raw)
		if !status.Valid() {
			httputil.WriteBadRequest(w, "status must be one of pending, approved, rejected, spam")
			return
		}
		filters.Status = &status
	}
	if raw := q.Get("author_id"); raw != "" {
		authorID, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid author_id")
			return
		}
		filters.AuthorID = &authorID
	}

	resp, err := h.commentService.List(r.Context(), postID, filters, pageFromQuery(r))
	if err != nil {
		writeServiceError(w, r, "list comments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// ListReplies handles GET /comments/{id}/replies
func (h *CommentHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	parentID, ok := uuidParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "invalid comment id")
		return
	}

	resp, err := h.commentService.ListReplies(r.Context(), parentID, pageFromQuery(r))
	if err != nil {
		writeServiceError(w, r, "list replies", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// authorFrom returns the caller's id, or nil for an anonymous request.
func authorFrom(r *http.Request) *uuid.UUID {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return nil
	}
	return &identity.ID
}
