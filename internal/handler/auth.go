package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"quillpress/internal/httputil"
	"quillpress/internal/model"
	"quillpress/internal/service"
	"quillpress/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "register", err)
		return
	}

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, "register", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "login", err)
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, "login", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

type validateResponse struct {
	Valid     bool      `json:"valid"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Validate handles POST /auth/validate. An invalid or expired token is 401.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "validate token", err)
		return
	}

	claims, err := h.authService.Validate(req.Token)
	if err != nil {
		writeServiceError(w, r, "validate token", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, validateResponse{
		Valid:     true,
		UserID:    claims.SubjectID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt,
	})
}

// Me returns the currently authenticated user
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	user, err := h.authService.Me(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, "me", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
