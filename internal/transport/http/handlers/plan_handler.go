package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/vedran77/glamplanner/internal/service"
	"github.com/vedran77/glamplanner/internal/transport/http/middleware"
)

type PlanHandler struct {
	planService *service.PlanService
	logger      zerolog.Logger
}

func NewPlanHandler(planService *service.PlanService, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{planService: planService, logger: logger}
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreatePlanInput
	if !decodeJSON(w, r, &input) {
		return
	}

	thread, err := h.planService.Create(r.Context(), middleware.GetIdentity(r.Context()), input)
	if err != nil {
		h.writeError(w, "create plan", err)
		return
	}

	writeJSON(w, http.StatusCreated, thread)
}

func (h *PlanHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	threads, err := h.planService.ListForRequester(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		h.writeError(w, "list requester plans", err)
		return
	}

	writeJSON(w, http.StatusOK, threads)
}

func (h *PlanHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	threads, err := h.planService.ListForResponder(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		h.writeError(w, "list responder plans", err)
		return
	}

	writeJSON(w, http.StatusOK, threads)
}

func (h *PlanHandler) Reply(w http.ResponseWriter, r *http.Request) {
	threadID, ok := parseID(w, r, "id", "plan")
	if !ok {
		return
	}

	var input service.AppendReplyInput
	if !decodeJSON(w, r, &input) {
		return
	}

	thread, err := h.planService.AppendReply(r.Context(), middleware.GetIdentity(r.Context()), threadID, input)
	if err != nil {
		h.writeError(w, "append reply", err)
		return
	}

	writeJSON(w, http.StatusOK, thread)
}

func (h *PlanHandler) Hide(w http.ResponseWriter, r *http.Request) {
	threadID, ok := parseID(w, r, "id", "plan")
	if !ok {
		return
	}

	thread, err := h.planService.HideThread(r.Context(), middleware.GetIdentity(r.Context()), threadID)
	if err != nil {
		h.writeError(w, "hide plan", err)
		return
	}

	writeJSON(w, http.StatusOK, thread)
}

func (h *PlanHandler) HideReply(w http.ResponseWriter, r *http.Request) {
	threadID, ok := parseID(w, r, "id", "plan")
	if !ok {
		return
	}
	replyID, ok := parseID(w, r, "replyID", "reply")
	if !ok {
		return
	}

	thread, err := h.planService.HideReply(r.Context(), middleware.GetIdentity(r.Context()), threadID, replyID)
	if err != nil {
		h.writeError(w, "hide reply", err)
		return
	}

	writeJSON(w, http.StatusOK, thread)
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	threadID, ok := parseID(w, r, "id", "plan")
	if !ok {
		return
	}

	if err := h.planService.DeleteThread(r.Context(), middleware.GetIdentity(r.Context()), threadID); err != nil {
		h.writeError(w, "delete plan", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlanHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	threadID, ok := parseID(w, r, "id", "plan")
	if !ok {
		return
	}
	replyID, ok := parseID(w, r, "replyID", "reply")
	if !ok {
		return
	}

	thread, err := h.planService.DeleteReply(r.Context(), middleware.GetIdentity(r.Context()), threadID, replyID)
	if err != nil {
		h.writeError(w, "delete reply", err)
		return
	}

	writeJSON(w, http.StatusOK, thread)
}

func (h *PlanHandler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidResponder):
		writeError(w, http.StatusBadRequest, "INVALID_RESPONDER", "Selected admin does not exist")
	case errors.Is(err, service.ErrPlanNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Plan not found")
	case errors.Is(err, service.ErrReplyNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Reply not found")
	default:
		if !writeServiceError(w, h.logger, op, err) {
			writeInternal(w, h.logger, op, err)
		}
	}
}
