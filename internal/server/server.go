package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"cime-gpt/internal/auth"
	"cime-gpt/internal/config"
	"cime-gpt/internal/handlers"
	"cime-gpt/internal/logging"
	"cime-gpt/internal/routes"
	"cime-gpt/internal/services"
)

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewServer builds the gateway HTTP server from cfg
func NewServer(cfg config.Config, logger *zap.Logger) *http.Server {
	backend := services.NewBackendClientWithTimeout(cfg.BackendURL, cfg.BackendTimeout)
	logger.Info("Backend client initialized",
		zap.String("url", backend.BaseURL()),
		zap.Duration("timeout", cfg.BackendTimeout))

	var issuer *auth.Issuer
	if cfg.JWTSecret != "" {
		issuer = auth.NewIssuer(cfg.JWTSecret, cfg.AdminEmail)
		logger.Info("Admin routes require a bearer token", zap.String("admin_email", cfg.AdminEmail))
	} else {
		logger.Warn("JWT_SECRET not set, admin routes are unauthenticated")
	}

	gateway := handlers.NewGatewayHandler(backend, issuer, logger.Named("gateway"))

	router := mux.NewRouter()
	routes.RegisterRoutes(router, gateway, issuer)

	// Add Swagger endpoints
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	handler := logging.RequestLogger(logger.Named("http"))(corsMiddleware(router))

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
