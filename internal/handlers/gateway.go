package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"cime-gpt/internal/auth"
	"cime-gpt/internal/models"
	"cime-gpt/internal/services"
)

// GatewayHandler forwards browser requests to the upstream backend
type GatewayHandler struct {
	backend services.Backend
	issuer  *auth.Issuer
	logger  *zap.Logger
}

// NewGatewayHandler creates a gateway handler. issuer may be nil, in which case
// login responses carry no token.
func NewGatewayHandler(backend services.Backend, issuer *auth.Issuer, logger *zap.Logger) *GatewayHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayHandler{
		backend: backend,
		issuer:  issuer,
		logger:  logger,
	}
}

// Helper methods

func (h *GatewayHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON", zap.Error(err))
	}
}

func (h *GatewayHandler) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, models.ErrorResponse{Error: message})
}

// sendRaw writes an upstream payload untouched
func (h *GatewayHandler) sendRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(raw); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// sendUpstreamFailure logs err and answers with the fixed 500 message
func (h *GatewayHandler) sendUpstreamFailure(w http.ResponseWriter, r *http.Request, err error, message string) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	var upErr *services.UpstreamError
	if errors.As(err, &upErr) {
		fields = append(fields, zap.String("kind", string(upErr.Kind)), zap.Int("upstream_status", upErr.StatusCode))
	}
	h.logger.Error(message, fields...)
	h.sendError(w, http.StatusInternalServerError, message)
}

func (h *GatewayHandler) decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
