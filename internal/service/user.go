package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quillpress/internal/auth"
	"quillpress/internal/model"
	"quillpress/internal/repository"
)

// UserService handles profile reads and owner-only profile edits.
type UserService struct {
	repo repository.UserRepository
	now  func() time.Time
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo, now: time.Now}
}

// GetByUsername returns a public profile.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// UpdateProfile edits display name and bio. Only the account itself may do this.
func (s *UserService) UpdateProfile(ctx context.Context, identity model.Identity, userID uuid.UUID, req model.UpdateProfileRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOwned(&identity, user); err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = req.DisplayName
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
