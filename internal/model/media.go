package model

import "fmt"

const (
	MaxAvatarSizeBytes = 5 * 1024 * 1024
	AvatarWidth        = 200
	AvatarHeight       = 200
	AvatarFolder       = "avatars"
	AvatarExt          = ".jpg"
	AvatarCacheControl = "public, max-age=31536000" // 1 year
)

// Supported image content types for avatar uploads
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
}

// Media errors are validation failures from the caller's point of view.
var (
	ErrFileTooLarge      = fmt.Errorf("%w: avatar exceeds 5MB limit", ErrValidation)
	ErrInvalidImageType  = fmt.Errorf("%w: unsupported image type, allowed: jpeg, png, gif", ErrValidation)
	ErrMediaNotAvailable = fmt.Errorf("%w: media storage is not configured", ErrInternal)
)

// UploadResult is the location of an uploaded object.
// Key is kept so the previous avatar can be removed on replacement.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
