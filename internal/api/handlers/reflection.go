package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/Harshitk-cp/echoform/internal/service"
	"go.uber.org/zap"
)

// maxEntryBody leaves room for JSON escaping around MaxContentLength.
const maxEntryBody = 4 * service.MaxContentLength

type ReflectionHandler struct {
	svc    *service.ReflectionService
	logger *zap.Logger
}

func NewReflectionHandler(svc *service.ReflectionService, logger *zap.Logger) *ReflectionHandler {
	return &ReflectionHandler{svc: svc, logger: logger}
}

type entryRequest struct {
	Content string `json:"content"`
	Context string `json:"context"`
}

// Entry submits a reflection and returns the hypotheses it touched, or the
// full current set when it carried no signal.
func (h *ReflectionHandler) Entry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEntryBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hyps, err := h.svc.Submit(r.Context(), req.Content, req.Context)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidContext), errors.Is(err, service.ErrContentTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrScorerUnavailable):
			h.logger.Warn("reflection rejected: scorer unavailable", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "similarity scorer unavailable")
		default:
			h.logger.Error("failed to process reflection", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to process reflection")
		}
		return
	}

	writeJSON(w, http.StatusOK, hyps)
}

func (h *ReflectionHandler) ListHypotheses(w http.ResponseWriter, r *http.Request) {
	hyps, err := h.svc.ListHypotheses(r.Context())
	if err != nil {
		h.logger.Error("failed to list hypotheses", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list hypotheses")
		return
	}
	writeJSON(w, http.StatusOK, hyps)
}
