package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"quillpress/internal/httputil"
	"quillpress/internal/model"
	"quillpress/internal/service"
	"quillpress/internal/transport/http/middleware"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// profileResponse is the public view of an account; email stays private.
type profileResponse struct {
	model.UserSummary
	Bio       *string   `json:"bio"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// GetProfile handles GET /users/{user} where {user} is a username.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "user"))
	if username == "" {
		httputil.WriteBadRequest(w, "username is required")
		return
	}

	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		writeServiceError(w, r, "get profile", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profileResponse{
		UserSummary: *user.Summary(),
		Bio:         user.Bio,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
	})
}

// UpdateProfile handles PUT /users/{user} where {user} is the account id.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	userID, ok := uuidParam(r, "user")
	if !ok {
		httputil.WriteBadRequest(w, "invalid user id")
		return
	}

	var req model.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "update profile", err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), identity, userID, req)
	if err != nil {
		writeServiceError(w, r, "update profile", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
