package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"buildtrack/internal/config"
	"buildtrack/internal/logger"
	"buildtrack/internal/server"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Configure(logger.Config{})
		log := logger.Base()
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Configure(logger.Config{Level: cfg.LogLevel})
	log := logger.WithComponent("main")

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv, err := server.NewServer(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("server setup failed")
	}
	defer srv.Close()

	go func() {
		log.Info().Str("addr", srv.HTTP.Addr).Str("backend", cfg.BackendURL).Msg("server listening")
		if err := srv.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTP.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server exiting")
}
