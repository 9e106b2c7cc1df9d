package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quillpress/internal/auth"
	"quillpress/internal/logger"
	"quillpress/internal/model"
	"quillpress/internal/repository"
)

// AuthService registers accounts, checks passwords and issues bearer tokens.
type AuthService struct {
	users repository.UserRepository
	codec *auth.Codec
	now   func() time.Time
}

func NewAuthService(users repository.UserRepository, codec *auth.Codec) *AuthService {
	return &AuthService{
		users: users,
		codec: codec,
		now:   time.Now,
	}
}

// Register creates a user account and signs the first token for it.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Join(model.ErrInternal, err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.DisplayName != "" {
		user.DisplayName = &req.DisplayName
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.For("auth_service").Info().Stringer("user_id", user.ID).Msg("user registered")
	return s.respond(user)
}

// Login checks the password. Unknown email and wrong password produce the
// same error.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return s.respond(user)
}

// Validate verifies a raw token and returns its claims.
func (s *AuthService) Validate(token string) (model.Claims, error) {
	return s.codec.Verify(token)
}

// Me loads the account behind an identity. A token whose user has since
// been deleted is treated as invalid.
func (s *AuthService) Me(ctx context.Context, identity model.Identity) (*model.User, error) {
	user, err := s.users.Get(ctx, identity.ID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrTokenInvalid
	}
	return user, err
}

func (s *AuthService) respond(user *model.User) (*model.AuthResponse, error) {
	token, _, err := s.codec.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{
		Token:     token,
		ExpiresIn: int(s.codec.TTL().Seconds()),
		User:      user,
	}, nil
}
