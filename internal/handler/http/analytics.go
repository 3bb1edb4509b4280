package http

import (
	"log/slog"
	"net/http"

	"github.com/jimkdev/library-api/internal/service"
	"github.com/jimkdev/library-api/pkg/httputil"
)

// AnalyticsHandler handles HTTP requests for the analytics endpoint.
type AnalyticsHandler struct {
	service *service.AnalyticsService
	logger  *slog.Logger
}

// NewAnalyticsHandler creates a new analytics HTTP handler.
func NewAnalyticsHandler(svc *service.AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc, logger: logger}
}

// Snapshot handles GET /analytics
func (h *AnalyticsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "analytics have been retrieved", snapshot)
}
