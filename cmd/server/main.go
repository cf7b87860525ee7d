package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizdash/quizdash/internal/config"
	"github.com/quizdash/quizdash/internal/database"
	"github.com/quizdash/quizdash/internal/handler"
	"github.com/quizdash/quizdash/internal/logger"
	"github.com/quizdash/quizdash/internal/metrics"
	"github.com/quizdash/quizdash/internal/middleware"
	"github.com/quizdash/quizdash/internal/repository"
	"github.com/quizdash/quizdash/internal/router"
	"github.com/quizdash/quizdash/internal/service"
	"github.com/quizdash/quizdash/internal/validator"
	"github.com/quizdash/quizdash/internal/worker"
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
		Str("session_store", cfg.SessionStore).
		Dur("question_time", cfg.QuestionTime).
		Msg("Starting Quizdash")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL (optional archive) ──────────────────────
	pool, err := database.NewArchivePool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	if pool != nil {
		defer pool.Close()
	}

	// ─── Connect to Redis (optional session store) ─────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	m := metrics.New()
	workerCtx, workerCancel := context.WithCancel(context.Background())

	// ─── Initialize Repositories ───────────────────────────────────────
	questionRepo := repository.NewQuestionRepository()

	var store repository.SessionStore
	if rdb != nil {
		store = repository.NewRedisSessionStore(rdb, cfg.SessionTTL)
	} else {
		memStore := repository.NewMemorySessionStore(cfg.SessionTTL)
		go worker.NewSessionSweeper(memStore, time.Minute, log).Start(workerCtx)
		store = memStore
	}

	// ─── Attempt Archive ───────────────────────────────────────────────
	// Redis available: enqueue and let the worker batch inserts.
	// Otherwise write straight to PostgreSQL.
	var archiver service.AttemptArchiver
	if pool != nil {
		attemptRepo := repository.NewAttemptRepository(pool)
		if rdb != nil {
			archiver = service.NewQueueArchiver(rdb)
			go worker.NewArchiveWorker(attemptRepo, rdb, log).Start(workerCtx)
		} else {
			archiver = service.NewDirectArchiver(attemptRepo)
		}
	}

	// ─── Initialize Services ──────────────────────────────────────────
	quizService, err := service.NewQuizService(ctx, questionRepo, store, archiver, cfg.QuestionTime, m, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build quiz")
	}
	tokenService := service.NewTokenService(cfg.SessionSecret, cfg.SessionTTL)
	landingService := service.NewLandingService()

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Quiz:    handler.NewQuizHandler(quizService, tokenService, log),
		Page:    handler.NewPageHandler(landingService, quizService, tokenService, log),
		Landing: handler.NewLandingHandler(landingService),
		WS:      handler.NewWSHandler(quizService, nil, log, cfg.AllowedOrigins),
		System:  handler.NewSystemHandler(rdb, pool, log),
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	go rateLimiter.Run(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r, err := router.SetupRouter(handlers, &router.Deps{
		QuizService:  quizService,
		TokenService: tokenService,
		RateLimiter:  rateLimiter,
		Metrics:      m,
		Log:          log,
	}, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up router")
	}

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

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers; the archive worker flushes its batch.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
