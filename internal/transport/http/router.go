package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quillpress/internal/auth"
	"quillpress/internal/handler"
	"quillpress/internal/httputil"
	authmw "quillpress/internal/transport/http/middleware"
)

const defaultRequestTimeout = 30 * time.Second

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	PostHandler       *handler.PostHandler
	CommentHandler    *handler.CommentHandler
	ModerationHandler *handler.ModerationHandler
	MediaHandler      *handler.MediaHandler
	Resolver          *auth.Resolver
	Moderators        authmw.ModeratorChecker
	RequestTimeout    time.Duration
}

// NewRouter creates and configures a new Chi router with all route groups.
// Reads are public; writes go through RequireAuth; comment creation goes
// through OptionalAuth so anonymous comments are possible.
func NewRouter(cfg RouterConfig) chi.Router {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	requireAuth := authmw.RequireAuth(cfg.Resolver)
	optionalAuth := authmw.OptionalAuth(cfg.Resolver)
	requireModerator := authmw.RequireModerator(cfg.Moderators)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(authmw.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/validate", cfg.AuthHandler.Validate)
	})
	r.With(requireAuth).Get("/me", cfg.AuthHandler.Me)

	r.Route("/users/{user}", func(r chi.Router) {
		r.Get("/", cfg.UserHandler.GetProfile)
		r.With(requireAuth).Put("/", cfg.UserHandler.UpdateProfile)
		r.With(requireAuth).Put("/avatar", cfg.MediaHandler.UploadAvatar)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", cfg.PostHandler.List)
		r.With(requireAuth).Post("/", cfg.PostHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", cfg.PostHandler.GetByID)
			r.With(requireAuth).Put("/", cfg.PostHandler.Update)
			r.With(requireAuth).Delete("/", cfg.PostHandler.Delete)

			r.Get("/comments", cfg.CommentHandler.ListByPost)
			r.With(optionalAuth).Post("/comments", cfg.CommentHandler.CreateOnPost)
		})
	})

	r.Route("/comments", func(r chi.Router) {
		r.With(optionalAuth).Post("/", cfg.CommentHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", cfg.CommentHandler.Get)
			r.With(requireAuth).Put("/", cfg.CommentHandler.Update)
			r.With(requireAuth).Delete("/", cfg.CommentHandler.Delete)

			r.Get("/replies", cfg.CommentHandler.ListReplies)
			r.With(optionalAuth).Post("/replies", cfg.CommentHandler.Reply)

			r.With(requireAuth, requireModerator).Post("/moderate", cfg.ModerationHandler.Moderate)
			r.With(requireAuth, requireModerator).Get("/moderation-log", cfg.ModerationHandler.History)
		})
	})

	r.With(requireAuth, requireModerator).Get("/moderation/queue", cfg.ModerationHandler.Queue)

	return r
}
