package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quillpress/internal/auth"
	"quillpress/internal/logger"
	"quillpress/internal/model"
	"quillpress/internal/repository"
)

// PostService handles post CRUD. Edits and deletes go through the ownership guard.
type PostService struct {
	repo repository.PostRepository
	now  func() time.Time
}

func NewPostService(repo repository.PostRepository) *PostService {
	return &PostService{repo: repo, now: time.Now}
}

// Create publishes a post owned by identity.
func (s *PostService) Create(ctx context.Context, identity model.Identity, req model.CreatePostRequest) (*model.Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post := &model.Post{
		ID:        uuid.New(),
		OwnerID:   identity.ID,
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	logger.For("post_service").Info().Stringer("post_id", post.ID).Stringer("owner_id", identity.ID).Msg("post created")
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of posts, newest first.
func (s *PostService) List(ctx context.Context, page model.Page) (*model.PostListResponse, error) {
	posts, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return &model.PostListResponse{
		Posts:      posts,
		Pagination: model.NewPagination(page, total),
	}, nil
}

// Update applies the fields present in req.
func (s *PostService) Update(ctx context.Context, identity model.Identity, id uuid.UUID, req model.UpdatePostRequest) (*model.Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOwned(&identity, post); err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Body != nil {
		post.Body = *req.Body
	}
	post.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete soft-deletes a post.
func (s *PostService) Delete(ctx context.Context, identity model.Identity, id uuid.UUID) error {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.AuthorizeOwned(&identity, post); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
