package auth

import (
	"fmt"
	"net/http"
	"strings"

	"quillpress/internal/model"
)

// Verifier checks a raw bearer token and returns its claims.
type Verifier interface {
	Verify(token string) (model.Claims, error)
}

// Resolver turns request headers into an Identity. It holds no per-request
// state and never caches results.
type Resolver struct {
	verifier Verifier
}

// NewResolver creates a resolver backed by v.
func NewResolver(v Verifier) *Resolver {
	return &Resolver{verifier: v}
}

// ResolveRequired fails with an Unauthorized-class error when the credential
// is absent, uses another scheme, or does not verify.
func (r *Resolver) ResolveRequired(headers http.Header) (model.Identity, error) {
	raw := headers.Get("Authorization")
	if raw == "" {
		return model.Identity{}, fmt.Errorf("%w: missing authentication token", model.ErrUnauthorized)
	}
	return r.resolve(raw)
}

// ResolveOptional returns nil when no credential is presented. A credential
// that is present but malformed is still rejected.
func (r *Resolver) ResolveOptional(headers http.Header) (*model.Identity, error) {
	raw := headers.Get("Authorization")
	if raw == "" {
		return nil, nil
	}
	identity, err := r.resolve(raw)
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *Resolver) resolve(raw string) (model.Identity, error) {
	token, err := bearerToken(raw)
	if err != nil {
		return model.Identity{}, err
	}
	claims, err := r.verifier.Verify(token)
	if err != nil {
		return model.Identity{}, err
	}
	return claims.Identity(), nil
}

// bearerToken extracts <token> from "Bearer <token>". The scheme is case-insensitive.
func bearerToken(raw string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(raw), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected Bearer scheme", model.ErrTokenInvalid)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", model.ErrTokenInvalid)
	}
	return token, nil
}
