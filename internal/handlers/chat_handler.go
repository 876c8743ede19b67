package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"cime-gpt/internal/models"
)

// Chat godoc
// @Summary Ask a question
// @Description Forwards a question to the backend and returns its answer with source excerpts
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.ChatRequest true "Question"
// @Success 200 {object} models.ChatResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/chat [post]
func (h *GatewayHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		h.sendError(w, http.StatusBadRequest, "Question is required")
		return
	}

	raw, err := h.backend.ChatRaw(r.Context(), req.Question)
	if err != nil {
		h.sendUpstreamFailure(w, r, err, "Failed to process chat request")
		return
	}

	h.logger.Debug("Chat answered", zap.Int("bytes", len(raw)))
	h.sendRaw(w, http.StatusOK, raw)
}
