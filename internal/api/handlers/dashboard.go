package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/echoform/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	svc    *service.ReflectionService
	logger *zap.Logger
}

func NewDashboardHandler(svc *service.ReflectionService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DashboardHandler) EntropyCheck(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Entropy(r.Context())
	if err != nil {
		h.logger.Error("entropy check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "entropy check failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *DashboardHandler) InferenceLogs(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", service.DefaultInferenceLogLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	logs, err := h.svc.InferenceLog(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to read inference log", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read inference log")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"logs": logs})
}
