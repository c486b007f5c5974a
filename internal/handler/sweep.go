package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/falconhq/falcon/internal/middleware"
	"github.com/falconhq/falcon/internal/sweep"
)

// SweepRunner runs one notification sweep.
type SweepRunner interface {
	Run(ctx context.Context) (*sweep.Report, error)
}

// SweepHandler exposes the sweep trigger for the external scheduler.
type SweepHandler struct {
	runner SweepRunner
	logger *slog.Logger
}

// NewSweepHandler creates a sweep trigger handler.
func NewSweepHandler(runner SweepRunner, logger *slog.Logger) *SweepHandler {
	return &SweepHandler{
		runner: runner,
		logger: logger.With("handler", "sweep"),
	}
}

// Trigger handles GET /cron/falcon-sweep.
func (h *SweepHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.runner.Run(ctx)
	if err != nil {
		h.logger.Error("sweep run failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"run_id":  report.RunID,
		"checked": report.Checked,
		"results": report.Results,
	})
}
