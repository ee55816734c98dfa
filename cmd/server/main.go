// Command server runs the AI chat backend: an HTTP API for accounts,
// conversations, and message exchange against an external completion
// service.
//
// Startup order: env file → config → logging → tracing → database →
// router → http.Server. Shutdown is graceful: SIGINT/SIGTERM drain active
// requests within a bounded context, then the limiter sweepers and the
// tracer provider are stopped.
//
// @title        AI Chat API
// @version      1.0
// @description  Authenticated conversations with AI-generated replies and paginated history.
// @BasePath     /api
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-ai-chat/docs"
	"github.com/tbourn/go-ai-chat/internal/codec"
	"github.com/tbourn/go-ai-chat/internal/config"
	httpapi "github.com/tbourn/go-ai-chat/internal/http"
	"github.com/tbourn/go-ai-chat/internal/llm"
	"github.com/tbourn/go-ai-chat/internal/observability"
	"github.com/tbourn/go-ai-chat/internal/repo"
	"github.com/tbourn/go-ai-chat/internal/services"
	"github.com/tbourn/go-ai-chat/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin failed, continuing untraced")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	completer := llm.New(llm.Options{
		BaseURL:     cfg.Completion.BaseURL,
		APIKey:      cfg.Completion.APIKey,
		Model:       cfg.Completion.Model,
		Timeout:     cfg.Completion.Timeout,
		ContextSize: cfg.Completion.ContextSize,
		RPS:         cfg.Completion.RPS,
		Burst:       cfg.Completion.Burst,
	})
	msgSvc := &services.MessageService{
		DB:           db,
		Codec:        codec.New(cfg.ContentSecret),
		Completer:    completer,
		HistoryLimit: cfg.Completion.ContextSize,
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	stopLimiters := httpapi.RegisterRoutes(r, db, msgSvc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	stopLimiters()
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("server stopped")
}
