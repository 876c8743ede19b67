package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"cime-gpt/internal/models"
)

// ListUsers godoc
// @Summary List registered users
// @Tags users
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/users [get]
func (h *GatewayHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.backend.ListUsers(r.Context())
	if err != nil {
		h.sendUpstreamFailure(w, r, err, "Failed to fetch users")
		return
	}
	if users == nil {
		users = []models.RegisteredUser{}
	}
	h.sendJSON(w, http.StatusOK, models.MessageResponse{
		Message: "Users fetched successfully",
		Data:    users,
	})
}

// GetUserFeedback godoc
// @Summary Feedback left by one user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} models.UserFeedback
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/user-feedback/{id} [get]
func (h *GatewayHandler) GetUserFeedback(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	feedback, err := h.backend.GetUserFeedback(r.Context(), id)
	if err != nil {
		h.sendUpstreamFailure(w, r, err, "Failed to fetch user feedback")
		return
	}
	if feedback == nil {
		feedback = []models.UserFeedback{}
	}
	h.sendJSON(w, http.StatusOK, feedback)
}

// SubmitFeedback godoc
// @Summary Rate the assistant
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.FeedbackRequest true "Feedback"
// @Success 200 {object} object
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/user-feedback [post]
func (h *GatewayHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.sendError(w, http.StatusBadRequest, "user_id, rating, and comment are required")
		return
	}
	if err := req.Validate(); err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, err := h.backend.SubmitFeedback(r.Context(), req)
	if err != nil {
		h.sendUpstreamFailure(w, r, err, "Failed to process feedback request")
		return
	}
	h.sendRaw(w, http.StatusOK, raw)
}
