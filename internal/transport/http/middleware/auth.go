package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"quillpress/internal/auth"
	"quillpress/internal/httputil"
	"quillpress/internal/logger"
	"quillpress/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth is the entry point for authenticated writes. Requests without
// a valid bearer token are rejected with 401.
func RequireAuth(resolver *auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolver.ResolveRequired(r.Header)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuth is the entry point for public reads and anonymous comments.
// No header passes through without an identity; a bad header is still 401.
func OptionalAuth(resolver *auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolver.ResolveOptional(r.Header)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			if identity != nil {
				r = r.WithContext(WithIdentity(r.Context(), *identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ModeratorChecker reports whether a user holds the moderator role.
type ModeratorChecker interface {
	IsModerator(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RequireModerator must run after RequireAuth.
func RequireModerator(checker ModeratorChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			allowed, err := checker.IsModerator(r.Context(), identity.ID)
			if err != nil {
				logger.For("http").Error().Err(err).Stringer("user_id", identity.ID).Msg("moderator lookup failed")
				httputil.WriteInternalError(w, "internal server error")
				return
			}
			if !allowed {
				httputil.WriteForbidden(w, "moderator role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity stores the authenticated principal in ctx.
func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom extracts the principal stored by RequireAuth or OptionalAuth.
func IdentityFrom(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrTokenExpired):
		httputil.WriteUnauthorized(w, "access token has expired")
	case errors.Is(err, model.ErrTokenInvalid):
		httputil.WriteUnauthorized(w, "invalid authentication token")
	case errors.Is(err, model.ErrUnauthorized):
		httputil.WriteUnauthorized(w, "missing authentication token")
	default:
		logger.For("http").Error().Err(err).Msg("token verification failed")
		httputil.WriteInternalError(w, "internal server error")
	}
}
