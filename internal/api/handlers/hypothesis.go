package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/echoform/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HypothesisHandler struct {
	svc    *service.ReflectionService
	logger *zap.Logger
}

func NewHypothesisHandler(svc *service.ReflectionService, logger *zap.Logger) *HypothesisHandler {
	return &HypothesisHandler{svc: svc, logger: logger}
}

type volatilityResponse struct {
	HypothesisID uuid.UUID `json:"hypothesis_id"`
	WindowDays   int       `json:"window_days"`
	Volatility   float64   `json:"volatility"`
}

func (h *HypothesisHandler) Snapshots(w http.ResponseWriter, r *http.Request) {
	id, windowDays, ok := parseHypothesisQuery(w, r)
	if !ok {
		return
	}

	snaps, err := h.svc.History(r.Context(), id, windowDays)
	if err != nil {
		h.writeServiceError(w, err, "failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (h *HypothesisHandler) Volatility(w http.ResponseWriter, r *http.Request) {
	id, windowDays, ok := parseHypothesisQuery(w, r)
	if !ok {
		return
	}

	vol, err := h.svc.Volatility(r.Context(), id, windowDays)
	if err != nil {
		h.writeServiceError(w, err, "failed to compute volatility")
		return
	}
	writeJSON(w, http.StatusOK, volatilityResponse{
		HypothesisID: id,
		WindowDays:   windowDays,
		Volatility:   vol,
	})
}

func parseHypothesisQuery(w http.ResponseWriter, r *http.Request) (uuid.UUID, int, bool) {
	id, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid hypothesis id")
		return uuid.Nil, 0, false
	}
	windowDays, ok := queryInt(r, "window_days", service.DefaultVolatilityWindowDays)
	if !ok || windowDays <= 0 {
		writeError(w, http.StatusBadRequest, "window_days must be a positive integer")
		return uuid.Nil, 0, false
	}
	return id, windowDays, true
}

func (h *HypothesisHandler) writeServiceError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, service.ErrHypothesisNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}
