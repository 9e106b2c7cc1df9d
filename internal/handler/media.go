package handler

import (
	"net/http"
	"strings"

	"quillpress/internal/httputil"
	"quillpress/internal/model"
	"quillpress/internal/service"
	"quillpress/internal/transport/http/middleware"
)

type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadAvatar handles PUT /users/{user}/avatar with a multipart "avatar" file.
// The stored image is a 200x200 JPEG regardless of the uploaded format.
func (h *MediaHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	userID, ok := uuidParam(r, "user")
	if !ok {
		httputil.WriteBadRequest(w, "invalid user id")
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			writeServiceError(w, r, "upload avatar", model.ErrFileTooLarge)
			return
		}
		httputil.WriteBadRequest(w, "content-type must be multipart/form-data")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "avatar file is required")
		return
	}
	defer file.Close()

	user, err := h.mediaService.UploadAvatar(r.Context(), identity, userID, service.Upload{
		Body:        file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		writeServiceError(w, r, "upload avatar", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
