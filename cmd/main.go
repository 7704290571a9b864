package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/db"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/handlers"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/logger"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/middleware"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/observability"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/repos"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/server"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/services"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on environment")
	}

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	pg := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(pg, log)
	userTokenRepo := repos.NewUserTokenRepo(pg, log)
	artworkRepo := repos.NewArtworkRepo(pg, log)
	assessmentRepo := repos.NewAssessmentRepo(pg, log)

	// Metrics
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	// Services
	log.Info("Setting up services...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	avatarService, err := services.NewAvatarService(log, bucketService)
	if err != nil {
		log.Warn("Could not init AvatarService, new users get no avatar", "error", err)
		avatarService = nil
	}
	// A nil evaluation client means the evaluate endpoint answers 503
	// instead of the process refusing to start.
	evalClient, err := services.NewEvaluationClient(log)
	if err != nil {
		log.Error("Could not init EvaluationClient", "error", err)
		os.Exit(1)
	}
	if evalClient == nil {
		log.Warn("ANTHROPIC_API_KEY not set, artwork evaluation disabled")
	}

	authService := services.NewAuthService(
		pg, log, userRepo, userTokenRepo, avatarService,
		jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second,
		time.Duration(refreshTokenTTL)*time.Second,
	)
	userService := services.NewUserService(log, userRepo)
	artworkService := services.NewArtworkService(pg, log, artworkRepo, bucketService)
	evaluationService := services.NewEvaluationService(pg, log, artworkRepo, assessmentRepo, bucketService, evalClient, metrics)
	referenceService := services.NewReferenceService(log, artworkRepo)

	// Handlers
	log.Info("Setting up handlers...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	artworkHandler := handlers.NewArtworkHandler(log, artworkService)
	evaluationHandler := handlers.NewEvaluationHandler(evaluationService)
	referenceHandler := handlers.NewReferenceHandler(referenceService)

	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	corsOrigins := strings.Split(utils.GetEnv("CORS_ORIGINS", "http://localhost:3000", log), ",")

	router := server.NewRouter(server.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		MetricsGatherer:   registry,
		AuthMiddleware:    authMiddleware,
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		ArtworkHandler:    artworkHandler,
		EvaluationHandler: evaluationHandler,
		ReferenceHandler:  referenceHandler,
		CORSOrigins:       corsOrigins,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
