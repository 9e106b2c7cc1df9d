package handler

import (
	"net/http"

	"github.com/google/uuid"

	"quillpress/internal/httputil"
	"quillpress/internal/model"
	"quillpress/internal/service"
	"quillpress/internal/transport/http/middleware"
)

// ModerationHandler serves the moderator-only endpoints. Role checks happen
// in middleware.RequireModerator before these run.
type ModerationHandler struct {
	moderationService *service.ModerationService
	commentService    *service.CommentService
}

func NewModerationHandler(moderationService *service.ModerationService, commentService *service.CommentService) *ModerationHandler {
	return &ModerationHandler{
		moderationService: moderationService,
		commentService:    commentService,
	}
}

// Moderate handles POST /comments/{id}/moderate
func (h *ModerationHandler) Moderate(w http.ResponseWriter, r *http.Request) {
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

	var req model.ModerateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "moderate", err)
		return
	}

	comment, err := h.moderationService.Moderate(r.Context(), identity, commentID, req)
	if err != nil {
		writeServiceError(w, r, "moderate", err)
		return
	}

	view, err := h.commentService.View(r.Context(), comment)
	if err != nil {
		writeServiceError(w, r, "moderate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, model.CommentResponse{Comment: *view})
}

// History handles GET /comments/{id}/moderation-log
func (h *ModerationHandler) History(w http.ResponseWriter, r *http.Request) {
	commentID, ok := uuidParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "invalid comment id")
		return
	}

	resp, err := h.moderationService.History(r.Context(), commentID)
	if err != nil {
		writeServiceError(w, r, "moderation history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Queue handles GET /moderation/queue?post_id=&page=&per_page=
func (h *ModerationHandler) Queue(w http.ResponseWriter, r *http.Request) {
	var postID *uuid.UUID
	if raw := r.URL.Query().Get("post_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid post_id")
			return
		}
		postID = &id
	}

	resp, err := h.moderationService.Queue(r.Context(), postID, pageFromQuery(r))
	if err != nil {
		writeServiceError(w, r, "moderation queue", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
