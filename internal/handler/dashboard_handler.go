package handler

import (
	"net/http"

	"coffee-on/internal/middleware"
	"coffee-on/internal/service"

	"github.com/rs/zerolog"
)

// DashboardHandler serves the administrative sales summary.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("handler", "dashboard").Logger(),
	}
}

// Summary handles GET /api/dashboard/resumo.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		writeError(w, err, "Erro ao gerar dashboard", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
