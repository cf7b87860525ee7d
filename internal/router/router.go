package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizdash/quizdash/internal/config"
	"github.com/quizdash/quizdash/internal/handler"
	"github.com/quizdash/quizdash/internal/logger"
	"github.com/quizdash/quizdash/internal/metrics"
	"github.com/quizdash/quizdash/internal/middleware"
	"github.com/quizdash/quizdash/internal/response"
	"github.com/quizdash/quizdash/internal/service"
	"github.com/quizdash/quizdash/internal/web"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Quiz    *handler.QuizHandler
	Page    *handler.PageHandler
	Landing *handler.LandingHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// Deps are the shared services the middleware chain needs.
type Deps struct {
	QuizService  *service.QuizService
	TokenService *service.TokenService
	RateLimiter  *middleware.RateLimiter
	Metrics      *metrics.Metrics
	Log          zerolog.Logger
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, deps *Deps, cfg *config.Config) (*gin.Engine, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(logger.RequestLogger(deps.Log), gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", middleware.SessionHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.Use(deps.Metrics.Middleware())

	// /metrics output is scraped by machines that rarely send br.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality: middleware.DefaultBrotliConfig.Quality,
		Skipper: func(c *gin.Context) bool {
			return strings.HasPrefix(c.Request.URL.Path, "/metrics")
		},
	}))

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	// Embedded assets, cached for a day.
	staticGroup := router.Group("/static")
	staticGroup.Use(middleware.CacheControl(86400))
	{
		staticGroup.StaticFS("/", http.FS(web.Static()))
	}

	// ─── 0. System (No Session) ────────────────────────────────────────
	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", deps.Metrics.Handler())
	router.GET("/api/v1/system/status", handlers.System.Status)
	router.GET("/api/v1/landing", handlers.Landing.GetLanding)

	session := middleware.QuizSession(deps.TokenService, deps.QuizService, deps.Log)

	// ─── 1. HTML Pages ─────────────────────────────────────────────────
	router.GET("/", handlers.Page.Landing)

	pages := router.Group("/quiz")
	pages.Use(middleware.NoStore(), session)
	{
		pages.GET("", handlers.Page.Quiz)
		pages.POST("/answer", handlers.Page.PostAnswer)
		pages.POST("/next", handlers.Page.PostNext)
		pages.POST("/previous", handlers.Page.PostPrevious)
		pages.POST("/skip", handlers.Page.PostSkip)
		pages.POST("/submit", handlers.Page.PostSubmit)
		pages.POST("/jump/:index", handlers.Page.PostJump)
		pages.POST("/restart", handlers.Page.PostRestart)
	}

	// ─── 2. Quiz API (Session, Rate Limited) ───────────────────────────
	quizAPI := router.Group("/api/v1/quiz")
	quizAPI.Use(deps.RateLimiter.Middleware(), middleware.NoStore(), session)
	{
		quizAPI.GET("/session", handlers.Quiz.GetSession)
		quizAPI.DELETE("/session", handlers.Quiz.Restart)
		quizAPI.POST("/answer", handlers.Quiz.SelectAnswer)
		quizAPI.POST("/next", handlers.Quiz.Next)
		quizAPI.POST("/previous", handlers.Quiz.Previous)
		quizAPI.POST("/skip", handlers.Quiz.Skip)
		quizAPI.POST("/submit", handlers.Quiz.Submit)
		quizAPI.POST("/jump/:index", handlers.Quiz.Jump)
		quizAPI.GET("/results", handlers.Quiz.GetResults)
	}

	// ─── 3. WebSocket Group (Session) ──────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(session)
	{
		ws.GET("/quiz/stream", handlers.WS.QuizStream)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router, nil
}
