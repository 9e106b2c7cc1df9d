package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"quillpress/internal/auth"
	"quillpress/internal/config"
	"quillpress/internal/logger"
	"quillpress/internal/model"
	"quillpress/internal/repository"
)

// ObjectStore is the blob storage the avatar pipeline writes to.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType, cacheControl string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// MediaService validates, normalizes and stores user avatars.
type MediaService struct {
	store ObjectStore // nil when R2 is not configured
	users repository.UserRepository
	now   func() time.Time
}

func NewMediaService(store ObjectStore, users repository.UserRepository) *MediaService {
	return &MediaService{store: store, users: users, now: time.Now}
}

// Upload is an avatar file as received from a multipart form.
type Upload struct {
	Body        io.Reader
	Size        int64
	ContentType string
}

// UploadAvatar replaces the avatar of userID. Only the account itself may
// do this. The image is cropped to a 200x200 JPEG before upload and the
// previous object is removed afterwards.
func (s *MediaService) UploadAvatar(ctx context.Context, identity model.Identity, userID uuid.UUID, upload Upload) (*model.User, error) {
	if s.store == nil {
		return nil, model.ErrMediaNotAvailable
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOwned(&identity, user); err != nil {
		return nil, err
	}

	data, err := readAndValidateImage(upload, model.MaxAvatarSizeBytes)
	if err != nil {
		return nil, err
	}
	jpegBytes, err := resizeToJPEG(data, model.AvatarWidth, model.AvatarHeight, 85)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", model.AvatarFolder, uuid.NewString(), model.AvatarExt)
	if err := s.store.Put(ctx, key, jpegBytes, model.ContentTypeJPEG, model.AvatarCacheControl); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInternal, err)
	}

	previous := user.AvatarKey
	url := s.store.URL(key)
	user.AvatarURL = &url
	user.AvatarKey = &key
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, err
	}

	if previous != nil && *previous != "" {
		if err := s.store.Delete(ctx, *previous); err != nil {
			logger.For("media_service").Warn().Err(err).Str("key", *previous).Msg("failed to delete previous avatar")
		}
	}
	return user, nil
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(upload Upload, maxSize int64) ([]byte, error) {
	if upload.Size > maxSize {
		return nil, model.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %w", model.ErrBadRequest, err)
	}
	if int64(len(data)) > maxSize {
		return nil, model.ErrFileTooLarge
	}

	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !model.IsAllowedImageType(contentType) {
		return nil, model.ErrInvalidImageType
	}
	return data, nil
}

// resizeToJPEG center-crops to the target size and encodes as JPEG.
func resizeToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.ErrInvalidImageType
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %w", model.ErrInternal, err)
	}
	return buf.Bytes(), nil
}

// R2Store is an ObjectStore on Cloudflare R2 through the S3 API.
type R2Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewR2Store builds the S3 client for the account's R2 endpoint.
func NewR2Store(ctx context.Context, cfg *config.Config) (*R2Store, error) {
	if !cfg.MediaEnabled() {
		return nil, model.ErrMediaNotAvailable
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config for r2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2Store{
		client:    client,
		bucket:    cfg.R2BucketName,
		publicURL: strings.TrimSuffix(cfg.R2PublicURL, "/"),
	}, nil
}

func (r *R2Store) Put(ctx context.Context, key string, body []byte, contentType, cacheControl string) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(r.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("upload to r2: %w", err)
	}
	return nil
}

func (r *R2Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete from r2: %w", err)
	}
	return nil
}

func (r *R2Store) URL(key string) string {
	return r.publicURL + "/" + key
}
