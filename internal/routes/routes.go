package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"cime-gpt/internal/auth"
	"cime-gpt/internal/handlers"
)

// RegisterRoutes sets up all application routes. When issuer is nil the admin
// routes are left open, matching deployments that run without token signing.
func RegisterRoutes(router *mux.Router, h *handlers.GatewayHandler, issuer *auth.Issuer) {
	// Health endpoints
	router.HandleFunc("/health", handlers.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc("/health/backend", h.BackendHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/chat", h.Chat).Methods(http.MethodPost)
	api.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/signup", h.Signup).Methods(http.MethodPost)
	api.HandleFunc("/sample-questions", h.ListSampleQuestions).Methods(http.MethodGet)
	api.HandleFunc("/user-feedback", h.SubmitFeedback).Methods(http.MethodPost)

	// Admin routes
	admin := api.NewRoute().Subrouter()
	if issuer != nil {
		admin.Use(auth.RequireAdmin(issuer))
	}
	admin.HandleFunc("/documents", h.ListDocuments).Methods(http.MethodGet)
	admin.HandleFunc("/documents/{id}", h.DeleteDocument).Methods(http.MethodDelete)
	admin.HandleFunc("/upload-pdf", h.UploadPDF).Methods(http.MethodPost)
	admin.HandleFunc("/rebuild-index", h.RebuildIndex).Methods(http.MethodPost)
	admin.HandleFunc("/sample-questions", h.CreateSampleQuestion).Methods(http.MethodPost)
	admin.HandleFunc("/sample-questions/{id}", h.DeleteSampleQuestion).Methods(http.MethodDelete)
	admin.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/user-feedback/{id}", h.GetUserFeedback).Methods(http.MethodGet)
}
