package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/vedran77/glamplanner/internal/service"
)

type MediaHandler struct {
	mediaService *service.MediaService
	logger       zerolog.Logger
}

func NewMediaHandler(mediaService *service.MediaService, logger zerolog.Logger) *MediaHandler {
	return &MediaHandler{mediaService: mediaService, logger: logger}
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(service.MaxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Expected a multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "No file uploaded")
		return
	}
	defer file.Close()

	obj, err := h.mediaService.Upload(r.Context(), file, header.Filename, r.FormValue("tags"), r.FormValue("context"))
	if err != nil {
		h.writeError(w, "upload", err)
		return
	}

	writeJSON(w, http.StatusCreated, obj)
}

func (h *MediaHandler) UploadByURL(w http.ResponseWriter, r *http.Request) {
	var input service.UploadByURLInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if input.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "image_url is required")
		return
	}

	obj, err := h.mediaService.UploadFromURL(r.Context(), input)
	if err != nil {
		h.writeError(w, "upload by url", err)
		return
	}

	writeJSON(w, http.StatusCreated, obj)
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.mediaService.Delete(r.Context(), chi.URLParam(r, "*")); err != nil {
		h.writeError(w, "delete image", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MediaHandler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrMediaDisabled):
		writeError(w, http.StatusServiceUnavailable, "MEDIA_DISABLED", "Image storage is not configured")
	case errors.Is(err, service.ErrInvalidImage):
		writeError(w, http.StatusBadRequest, "INVALID_IMAGE", "File is not an image")
	case errors.Is(err, service.ErrImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", "Image must be 10 MB or smaller")
	case errors.Is(err, service.ErrInvalidMediaID):
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid image ID")
	case errors.Is(err, service.ErrFetchFailed):
		writeError(w, http.StatusBadGateway, "FETCH_FAILED", "Could not download the image")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		writeInternal(w, h.logger, op, err)
	}
}
