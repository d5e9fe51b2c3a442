package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/handler"
	"github.com/stemsi/quizhub-backend/internal/middleware"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
	"github.com/stemsi/quizhub-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Quiz     *handler.QuizHandler
	Question *handler.QuestionHandler
	Option   *handler.OptionHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	sessions *service.SessionService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// Credentialed requests need an explicit origin list; without one,
	// only same-origin browsers can carry the session cookie.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", middleware.CSRFHeader}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Location"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	cookie := middleware.SessionCookie{Name: cfg.CookieName, Secure: cfg.CookieSecure}
	router.Use(middleware.LoadSession(sessions, cookie, log))

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	csrf := middleware.RequireCSRF(sessions)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/logout", middleware.RequireAuthenticated(), csrf, handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireAuthenticated(), handlers.Auth.Me)
	}

	// ─── 2. Catalogue (any signed-in role) ─────────────────────────────
	api := router.Group("/api/v1", middleware.RequireAuthenticated())
	{
		api.GET("/quizzes", handlers.Quiz.Catalogue)
	}

	// ─── 3. Admin Group (Admin role + CSRF) ────────────────────────────
	adminAPI := router.Group("/api/v1/admin", middleware.RequireRoles(model.RoleAdmin), csrf)
	{
		adminAPI.GET("/quizzes", handlers.Quiz.List)
		adminAPI.POST("/quizzes", handlers.Quiz.Create)
		adminAPI.GET("/quizzes/:id", handlers.Quiz.Get)
		adminAPI.PUT("/quizzes/:id", handlers.Quiz.Update)
		adminAPI.DELETE("/quizzes/:id", handlers.Quiz.Delete)

		adminAPI.GET("/quizzes/:id/questions", handlers.Question.List)
		adminAPI.POST("/quizzes/:id/questions", handlers.Question.Create)
		adminAPI.GET("/questions/:id", handlers.Question.Get)
		adminAPI.PUT("/questions/:id", handlers.Question.Update)
		adminAPI.DELETE("/questions/:id", handlers.Question.Delete)

		adminAPI.POST("/questions/:id/options", handlers.Option.Create)
		adminAPI.GET("/options/:id", handlers.Option.Get)
		adminAPI.PUT("/options/:id", handlers.Option.Update)
		adminAPI.DELETE("/options/:id", handlers.Option.Delete)
	}

	// ─── 4. WebSocket Group (Admin role) ───────────────────────────────
	ws := router.Group("/ws/v1", middleware.RequireRoles(model.RoleAdmin))
	{
		ws.GET("/admin/content", handlers.WS.ContentStream)
	}

	return router
}
