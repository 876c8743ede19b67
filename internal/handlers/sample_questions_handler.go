package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"cime-gpt/internal/models"
)

// ListSampleQuestions godoc
// @Summary List sample questions
// @Tags sample-questions
// @Produce json
// @Success 200 {array} models.SampleQuestion
// @Failure 500 {object} models.ErrorResponse
// @Router /api/sample-questions [get]
func (h *GatewayHandler) ListSampleQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.backend.ListSampleQuestions(r.Context())
	if err != nil {
		h.sendUpstreamFailure(w, r, err, "Failed to fetch sample questions")
		return
	}
	if questions == nil {
		questions = []models.SampleQuestion{}
	}
	h.sendJSON(w, http.StatusOK, questions)
}

// CreateSampleQuestion godoc
// @Summary Add a sample question
// @Tags sample-questions
// @Accept json
// @Produce json
// @Param request body models.ChatRequest true "Question"
// @Success 200 {object} models.SampleQuestion
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/sample-questions [post]
func (h *GatewayHandler) CreateSampleQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := h.decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Question) == "" {
		h.sendError(w, http.StatusBadRequest, "Question is required")
		return
	}

	raw, err := h.backend.CreateSampleQuestionRaw(r.Context(), strings.TrimSpace(req.Question))
	if err != nil {
		h.sendUpstreamFailure(w, r, err, "Failed to create sample question")
		return
	}

	h.logger.Info("Sample question created", zap.Int("bytes", len(raw)))
	h.sendRaw(w, http.StatusOK, raw)
}

// DeleteSampleQuestion godoc
// @Summary Delete a sample question
// @Tags sample-questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} object
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/sample-questions/{id} [delete]
func (h *GatewayHandler) DeleteSampleQuestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	raw, err := h.backend.DeleteSampleQuestion(r.Context(), id)
	if err != nil {
		h.sendUpstreamFailure(w, r, err, "Failed to delete sample question")
		return
	}

	h.logger.Info("Sample question deleted", zap.String("id", id))
	h.sendRaw(w, http.StatusOK, raw)
}
