package handler

import (
	"net/http"

	"sahayak/internal/service"
	"sahayak/internal/transport/rest/middleware"
)

// StatsHandler handles dashboard statistics endpoints
type StatsHandler struct {
	pedagogySvc *service.PedagogyService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(pedagogySvc *service.PedagogyService) *StatsHandler {
	return &StatsHandler{pedagogySvc: pedagogySvc}
}

// TeacherStats handles GET /v1/stats/teacher
func (h *StatsHandler) TeacherStats(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	if teacherID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.pedagogySvc.TeacherStats(r.Context(), teacherID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Overview handles GET /v1/stats/overview
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.pedagogySvc.Overview(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// CacheStats handles GET /v1/stats/cache
func (h *StatsHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pedagogySvc.CacheStats())
}
