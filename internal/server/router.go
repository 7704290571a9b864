package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/handlers"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/logger"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/middleware"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/observability"
)

type RouterConfig struct {
	Log               *logger.Logger
	Metrics           *observability.Metrics
	MetricsGatherer   prometheus.Gatherer
	AuthMiddleware    *middleware.AuthMiddleware
	AuthHandler       *handlers.AuthHandler
	UserHandler       *handlers.UserHandler
	ArtworkHandler    *handlers.ArtworkHandler
	EvaluationHandler *handlers.EvaluationHandler
	ReferenceHandler  *handlers.ReferenceHandler
	CORSOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.Metrics(cfg.Metrics))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.MetricsGatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{})))
	}
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	api.POST("/refresh", cfg.AuthHandler.Refresh)
	api.POST("/logout", cfg.AuthHandler.Logout)
	api.GET("/user", cfg.UserHandler.GetMe)
	api.POST("/artworks", cfg.ArtworkHandler.Upload)
	api.GET("/artworks", cfg.ArtworkHandler.List)
	api.GET("/artworks/:id", cfg.ArtworkHandler.Get)
	api.GET("/progress", cfg.ArtworkHandler.Progress)
	api.POST("/evaluate", cfg.EvaluationHandler.Evaluate)
	api.GET("/references", cfg.ReferenceHandler.GetReferences)

	return router
}
