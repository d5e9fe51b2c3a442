package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/database"
	"github.com/stemsi/quizhub-backend/internal/handler"
	"github.com/stemsi/quizhub-backend/internal/logger"
	"github.com/stemsi/quizhub-backend/internal/middleware"
	"github.com/stemsi/quizhub-backend/internal/repository"
	"github.com/stemsi/quizhub-backend/internal/router"
	"github.com/stemsi/quizhub-backend/internal/service"
	"github.com/stemsi/quizhub-backend/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Bool("admin_enabled", cfg.Admin.Enabled()).
		Msg("Starting QuizHub Backend")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if !cfg.Admin.Enabled() {
		log.Warn().Msg("ADMIN_EMAIL is blank; admin sign-in is disabled")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	sessionRepo := repository.NewSessionRepository(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	events := service.NewContentEventBus(rdb, log)
	passwordService := service.NewPasswordService(cfg.BcryptCost)
	credentialService := service.NewCredentialService(cfg.Admin, studentRepo, passwordService)
	sessionService := service.NewSessionService(cfg, sessionRepo)
	accountService := service.NewAccountService(credentialService, sessionService, studentRepo, passwordService, log)
	quizService := service.NewQuizService(contentRepo, events, log)
	questionService := service.NewQuestionService(contentRepo, events, log)
	optionService := service.NewOptionService(contentRepo, events, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	cookie := middleware.SessionCookie{Name: cfg.CookieName, Secure: cfg.CookieSecure}
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(accountService, sessionService, cookie, log),
		Quiz:     handler.NewQuizHandler(quizService, log),
		Question: handler.NewQuestionHandler(questionService, log),
		Option:   handler.NewOptionHandler(optionService, log),
		WS:       handler.NewWSHandler(events, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(sessionService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// In-flight requests finish or their transactions roll back when the
	// request context is cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
