package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/mindgarden-backend/internal/clients/redis"
	"github.com/yungbote/mindgarden-backend/internal/db"
	"github.com/yungbote/mindgarden-backend/internal/engine"
	"github.com/yungbote/mindgarden-backend/internal/handlers"
	"github.com/yungbote/mindgarden-backend/internal/logger"
	"github.com/yungbote/mindgarden-backend/internal/middleware"
	"github.com/yungbote/mindgarden-backend/internal/observability"
	"github.com/yungbote/mindgarden-backend/internal/repos"
	"github.com/yungbote/mindgarden-backend/internal/server"
	"github.com/yungbote/mindgarden-backend/internal/services"
	"github.com/yungbote/mindgarden-backend/internal/utils"
)

const serviceName = "mindgarden-backend"

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownTracing := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownTracing != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(ctx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Scoring engine
	engineCfg := engine.LoadConfig(utils.GetEnv("ENGINE_CONFIG_PATH", "", log), log)
	scoringEngine := engine.New(engineCfg)

	// Database
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Database auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	gameSessionRepo := repos.NewGameSessionRepo(thePG, log)
	rollupRepo := repos.NewMetricsRollupRepo(thePG, log)

	// Rollup cache (optional)
	rollupCache, err := redis.NewRollupCache(log)
	if err != nil {
		log.Warn("Could not init rollup cache, continuing without it", "error", err)
	}

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	rollupService := services.NewRollupService(thePG, log, scoringEngine, gameSessionRepo, rollupRepo, rollupCache)
	sessionService := services.NewSessionService(thePG, log, scoringEngine, gameSessionRepo, rollupService, rollupCache)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	sessionHandler := handlers.NewSessionHandler(log, sessionService)
	rollupHandler := handlers.NewRollupHandler(rollupService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:    serviceName,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		UserHandler:    userHandler,
		SessionHandler: sessionHandler,
		RollupHandler:  rollupHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
