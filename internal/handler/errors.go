package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"quillpress/internal/httputil"
	"quillpress/internal/logger"
	"quillpress/internal/model"
)

// statusFor maps a service error to its HTTP status. Order matters where
// sentinels wrap each other.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrCommentDeleted):
		return http.StatusGone
	case errors.Is(err, model.ErrAlreadyModerated),
		errors.Is(err, model.ErrEmailExists),
		errors.Is(err, model.ErrUsernameExists):
		return http.StatusConflict
	case errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrPostNotFound),
		errors.Is(err, model.ErrCommentNotFound),
		errors.Is(err, model.ErrParentNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrBadRequest),
		errors.Is(err, model.ErrInvalidModeration),
		errors.Is(err, model.ErrMaxNestingLevel),
		errors.Is(err, model.ErrParentNotApproved):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrMediaNotAvailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeServiceError renders err in the error envelope. Server-side failures
// are logged with detail and reach the client as a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.For("handler").Error().Err(err).
			Str("op", op).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request failed")
		if status == http.StatusServiceUnavailable {
			httputil.WriteError(w, status, "media storage is not configured")
			return
		}
		httputil.WriteInternalError(w, "internal server error")
		return
	}
	httputil.WriteError(w, status, err.Error())
}

// uuidParam parses a chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", model.ErrBadRequest)
	}
	return nil
}

// pageFromQuery reads page and per_page. Missing or non-numeric values fall
// back to the defaults; out-of-range values are clamped.
func pageFromQuery(r *http.Request) model.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return model.NewPage(page, perPage)
}
