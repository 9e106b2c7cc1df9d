// Package auth issues and verifies bearer tokens, resolves the identity of a
// request from its headers, and guards mutations of owned resources.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"quillpress/internal/model"
)

// DefaultTokenTTL is the lifetime of an issued token.
const DefaultTokenTTL = 24 * time.Hour

// tokenClaims is the JWT payload: sub, email, exp, iat.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Codec signs and verifies identity claims with a process-wide secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec returns a codec for secret. An empty secret is a configuration
// error: there is no fallback key.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: token signing secret is not configured", model.ErrInternal)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime applied to issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the given principal, expiring ttl from now.
func (c *Codec) Issue(subjectID uuid.UUID, email string) (string, model.Claims, error) {
	now := c.now()
	claims := model.Claims{
		SubjectID: subjectID,
		Email:     email,
		ExpiresAt: now.Add(c.ttl),
	}
	token, err := Issue(claims, c.secret, now)
	if err != nil {
		return "", model.Claims{}, err
	}
	return token, claims, nil
}

// Verify checks a token against the codec's secret.
func (c *Codec) Verify(token string) (model.Claims, error) {
	return Verify(token, c.secret, c.now())
}

// Issue serializes and signs claims with HS256.
func Issue(claims model.Claims, secret []byte, issuedAt time.Time) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("%w: token signing secret is not configured", model.ErrInternal)
	}
	payload := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.SubjectID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
		Email: claims.Email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%w: signing token: %w", model.ErrInternal, err)
	}
	return signed, nil
}

// Verify checks signature integrity and expiry. A bad signature or malformed
// token yields ErrTokenInvalid; a well-signed token past its expiry yields
// ErrTokenExpired.
func Verify(token string, secret []byte, now time.Time) (model.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(_ *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Claims{}, fmt.Errorf("%w: %w", model.ErrTokenExpired, err)
		}
		return model.Claims{}, fmt.Errorf("%w: %w", model.ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return model.Claims{}, model.ErrTokenInvalid
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Claims{}, fmt.Errorf("%w: bad subject", model.ErrTokenInvalid)
	}

	return model.Claims{
		SubjectID: subjectID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
