package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/vedran77/glamplanner/internal/service"
	"github.com/vedran77/glamplanner/internal/transport/http/middleware"
	"github.com/vedran77/glamplanner/pkg/validator"
)

type GalleryHandler struct {
	galleryService *service.GalleryService
	logger         zerolog.Logger
}

func NewGalleryHandler(galleryService *service.GalleryService, logger zerolog.Logger) *GalleryHandler {
	return &GalleryHandler{galleryService: galleryService, logger: logger}
}

func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	images, err := h.galleryService.List(r.Context())
	if err != nil {
		if !writeServiceError(w, h.logger, "list gallery", err) {
			writeInternal(w, h.logger, "list gallery", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, images)
}

func (h *GalleryHandler) Add(w http.ResponseWriter, r *http.Request) {
	var input service.AddImageInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidateGalleryImage(input.URL); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	img, err := h.galleryService.Add(r.Context(), middleware.GetIdentity(r.Context()), input)
	if err != nil {
		if !writeServiceError(w, h.logger, "add gallery image", err) {
			writeInternal(w, h.logger, "add gallery image", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, img)
}

func (h *GalleryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "image")
	if !ok {
		return
	}

	if err := h.galleryService.Remove(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Image not found")
		} else if !writeServiceError(w, h.logger, "remove gallery image", err) {
			writeInternal(w, h.logger, "remove gallery image", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
