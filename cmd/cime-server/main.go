// Package main CIME-GPT gateway server
//
//	@title			CIME-GPT Gateway API
//	@version		1.0
//	@description	Gateway between the CIME-GPT clients and the question-answering backend
//
//	@host		localhost:3000
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "cime-gpt/docs" // registers the swagger spec
	"cime-gpt/internal/config"
	"cime-gpt/internal/logging"
	"cime-gpt/internal/server"
)

func main() {
	cfg, err := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFile)
	defer logger.Sync()

	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	srv := server.NewServer(cfg, logger)

	go func() {
		logger.Info("Starting CIME-GPT gateway", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Could not listen", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exiting gracefully")
}
