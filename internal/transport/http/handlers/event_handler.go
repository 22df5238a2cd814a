package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/vedran77/glamplanner/internal/service"
	"github.com/vedran77/glamplanner/internal/transport/http/middleware"
	"github.com/vedran77/glamplanner/pkg/validator"
)

type EventHandler struct {
	eventService *service.EventService
	logger       zerolog.Logger
}

func NewEventHandler(eventService *service.EventService, logger zerolog.Logger) *EventHandler {
	return &EventHandler{eventService: eventService, logger: logger}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateEventInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidateEvent(input.Title, input.Description, input.ImageURL); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	event, err := h.eventService.Create(r.Context(), middleware.GetIdentity(r.Context()), input)
	if err != nil {
		h.writeError(w, "create event", err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.List(r.Context())
	if err != nil {
		h.writeError(w, "list events", err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "event")
	if !ok {
		return
	}

	event, err := h.eventService.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, "get event", err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "event")
	if !ok {
		return
	}

	var input service.UpdateEventInput
	if !decodeJSON(w, r, &input) {
		return
	}

	event, err := h.eventService.Update(r.Context(), id, input)
	if err != nil {
		h.writeError(w, "update event", err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "event")
	if !ok {
		return
	}

	var input struct {
		ImageURL string `json:"image_url"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	event, err := h.eventService.RemoveContentImage(r.Context(), id, input.ImageURL)
	if err != nil {
		h.writeError(w, "remove event image", err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "event")
	if !ok {
		return
	}

	if err := h.eventService.Delete(r.Context(), id); err != nil {
		h.writeError(w, "delete event", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) writeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, service.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Event not found")
		return
	}
	if !writeServiceError(w, h.logger, op, err) {
		writeInternal(w, h.logger, op, err)
	}
}
