package handlers

import (
	"encoding/json"
	"net/http"

	"cime-gpt/internal/models"
)

// HealthCheckHandler godoc
// @Summary Liveness check
// @Description Reports that the gateway process is serving requests
// @Tags health
// @Produce json
// @Success 200 {object} models.BasicResponse
// @Router /health [get]
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := models.BasicResponse{
		Message: "Server is healthy",
		Status:  "success",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// BackendHealth godoc
// @Summary Upstream readiness check
// @Description Reports whether the question-answering backend is reachable
// @Tags health
// @Produce json
// @Success 200 {object} models.BasicResponse
// @Failure 503 {object} models.BasicResponse
// @Router /health/backend [get]
func (h *GatewayHandler) BackendHealth(w http.ResponseWriter, r *http.Request) {
	healthy, err := h.backend.Health(r.Context())
	if err != nil || !healthy {
		h.logger.Sugar().Warnw("Backend health check failed", "error", err)
		h.sendJSON(w, http.StatusServiceUnavailable, models.BasicResponse{
			Message: "Backend is unreachable",
			Status:  "error",
		})
		return
	}
	h.sendJSON(w, http.StatusOK, models.BasicResponse{
		Message: "Backend is healthy",
		Status:  "success",
	})
}
