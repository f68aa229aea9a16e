package handler

import (
	"context"
	"net/http"
	"time"

	"labelvision/internal/config"
	"labelvision/internal/dto"
	"labelvision/internal/logger"
)

// HealthChecker is implemented by detectors that can check their backend.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// ViewerCounter reports how many live event clients are connected.
type ViewerCounter interface {
	GetClientCount() int
}

// HealthHandler reports "ok", or "degraded" with 503 when the detector
// backend fails its health check. viewers may be nil.
func HealthHandler(cfg *config.Config, checker HealthChecker, viewers ViewerCounter, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := dto.HealthResponse{
			Status:   "ok",
			Detector: cfg.DetectorBackend,
			Storage:  cfg.StorageBackend,
		}
		if viewers != nil {
			resp.Viewers = viewers.GetClientCount()
		}

		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := checker.CheckHealth(ctx); err != nil {
				logger.Warning("Detector health check failed: %v", err)
				resp.Status = "degraded"
				writeJSON(w, http.StatusServiceUnavailable, resp)
				return
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
