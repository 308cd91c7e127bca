package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"surveystats/config"
	"surveystats/internal/app"
	"surveystats/internal/transport/rest"
	"surveystats/internal/transport/ws"
)

// @title Survey Statistics API
// @version 1.0
// @description Likert survey collection and statistical reporting
// @host localhost:8080
// @BasePath /v1
func main() {
	cfg := config.Load()

	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if !cfg.DotenvLoaded {
		logger.Debug("no .env file found, using environment variables")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer a.Close(ctx)

	logger.Info("analysis settings",
		zap.String("survey", a.Schema.ID()),
		zap.Int("questions", a.Schema.QuestionCount()),
		zap.Float64("confidenceLevel", a.Analysis.Options.ConfidenceLevel),
		zap.Int("agreementThreshold", a.Analysis.Options.AgreementThreshold),
		zap.Bool("extended", a.Analysis.Extended),
	)

	// Initialize WebSocket hub
	wsHub := ws.NewHub(logger)
	defer wsHub.Close()

	// Inject broadcaster (wsHub implements service.Broadcaster)
	a.ResponseService.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:     a.AuthService,
		ResponseService: a.ResponseService,
		ReportService:   a.ReportService,
		WSHub:           wsHub,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("hostUser", cfg.HostUsername),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ListenAndServe", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
