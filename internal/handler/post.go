package handler

import (
	"net/http"

	"quillpress/internal/httputil"
	"quillpress/internal/model"
	"quillpress/internal/service"
	"quillpress/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// List handles GET /posts?page=&per_page=
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.postService.List(r.Context(), pageFromQuery(r))
	if err != nil {
		writeServiceError(w, r, "list posts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// GetByID handles GET /posts/{id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID, ok := uuidParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "invalid post id")
		return
	}

	post, err := h.postService.Get(r.Context(), postID)
	if err != nil {
		writeServiceError(w, r, "get post", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// Create handles POST /posts
// Creates a new post for the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req model.CreatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "create post", err)
		return
	}

	post, err := h.postService.Create(r.Context(), identity, req)
	if err != nil {
		writeServiceError(w, r, "create post", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Update handles PUT /posts/{id} (owner only).
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	postID, ok := uuidParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "invalid post id")
		return
	}

	var req model.UpdatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "update post", err)
		return
	}

	post, err := h.postService.Update(r.Context(), identity, postID, req)
	if err != nil {
		writeServiceError(w, r, "update post", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id} (owner only, soft delete).
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	postID, ok := uuidParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "invalid post id")
		return
	}

	if err := h.postService.Delete(r.Context(), identity, postID); err != nil {
		writeServiceError(w, r, "delete post", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
