package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"cime-gpt/internal/models"
	"cime-gpt/internal/services"
)

// Login godoc
// @Summary Log in
// @Description Validates credentials locally, verifies them with the backend and, when token signing is enabled, returns a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/login [post]
func (h *GatewayHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.sendError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := req.Validate(); err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.backend.Login(r.Context(), req)
	if err != nil {
		h.forwardRejection(w, r, err, "Invalid credentials")
		return
	}

	resp := models.MessageResponse{Message: "Login successful", Data: data}
	if h.issuer != nil {
		token, err := h.issuer.Generate(req.Email)
		if err != nil {
			h.logger.Error("Failed to sign token", zap.Error(err))
			h.sendError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		resp.Token = token
	}

	h.logger.Info("User logged in", zap.String("email", req.Email))
	h.sendJSON(w, http.StatusOK, resp)
}

// Signup godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "New account"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/signup [post]
func (h *GatewayHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.sendError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := req.Validate(); err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.backend.Signup(r.Context(), req)
	if err != nil {
		h.forwardRejection(w, r, err, "Failed to create account")
		return
	}

	h.logger.Info("Account created", zap.String("email", req.Email))
	h.sendJSON(w, http.StatusOK, models.MessageResponse{Message: "Account created successfully", Data: data})
}

// forwardRejection answers with the backend's own status and message when the
// backend rejected the request, and with a generic 500 when it was unreachable.
func (h *GatewayHandler) forwardRejection(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var upErr *services.UpstreamError
	if !errors.As(err, &upErr) || upErr.Kind != services.ErrorKindStatus {
		h.sendUpstreamFailure(w, r, err, "Internal server error")
		return
	}

	msg := upErr.Message
	if msg == "" || msg == http.StatusText(upErr.StatusCode) {
		msg = fallback
	}
	h.logger.Warn("Backend rejected request",
		zap.String("path", r.URL.Path),
		zap.Int("status", upErr.StatusCode),
		zap.String("message", msg))
	h.sendError(w, upErr.StatusCode, msg)
}
