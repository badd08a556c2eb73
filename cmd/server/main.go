package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/config"
	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/genai"
	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/httpserver"
	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/logging"
	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/store"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogFile, cfg.Production)
	defer func() { _ = logger.Sync() }()

	st := store.NewClient(cfg.StoreBaseURL, cfg.StoreToken)
	gen := genai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModelID)

	srv := httpserver.New(cfg, st, gen, logger)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.HTTPAddress))
		serverErrors <- srv.Start(cfg.HTTPAddress)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("server error", zap.Error(err))
	case sig := <-sigChan:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
