package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/reschedule-api/api/swagger"
	"github.com/noah-isme/reschedule-api/internal/handler"
	internalmiddleware "github.com/noah-isme/reschedule-api/internal/middleware"
	"github.com/noah-isme/reschedule-api/internal/models"
	"github.com/noah-isme/reschedule-api/internal/repository"
	"github.com/noah-isme/reschedule-api/internal/service"
	"github.com/noah-isme/reschedule-api/pkg/cache"
	"github.com/noah-isme/reschedule-api/pkg/config"
	"github.com/noah-isme/reschedule-api/pkg/database"
	"github.com/noah-isme/reschedule-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/reschedule-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/reschedule-api/pkg/middleware/requestid"
)

// @title Course Reschedule API
// @version 1.0.0
// @description Availability intersection and room recommendations for course change requests
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	redisClient, err := cache.Connect(context.Background(), cfg.Recommendations.CacheEnabled, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, recommendation cache disabled", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Recommendations.CacheTTL, logr, redisClient != nil)

	userRepo := repository.NewUserRepository(db)
	changeRequestRepo := repository.NewChangeRequestRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	recommendationRepo := repository.NewRecommendationRepository(db)
	timeSlotRepo := repository.NewTimeSlotRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	proposalSvc := service.NewProposalService(changeRequestRepo, userRepo, timeSlotRepo, availabilityRepo, validate, logr)
	recommendationSvc := service.NewRecommendationService(
		changeRequestRepo,
		userRepo,
		availabilityRepo,
		roomRepo,
		service.NewRoomFilter(roomRepo, metricsSvc),
		recommendationRepo,
		db,
		cacheSvc,
		metricsSvc,
		validate,
		logr,
		service.RecommendationConfig{Isolation: database.IsolationLevel(cfg.Recommendations.Isolation)},
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authHandler := handler.NewAuthHandler(authSvc)
	api.POST("/auth/login", authHandler.Login)

	recommendationHandler := handler.NewRecommendationHandler(recommendationSvc, logr)
	anyRole := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator, models.RoleLeader, models.RoleRepresentative)
	managers := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator, models.RoleLeader)

	userHandler := handler.NewUserHandler(userSvc)
	users := api.Group("/users", internalmiddleware.JWT(authSvc), internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator))
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.POST("", userHandler.Create)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	proposalHandler := handler.NewProposalHandler(proposalSvc, logr)
	proposals := api.Group("/change-requests/:id/proposals", internalmiddleware.JWT(authSvc))
	proposals.POST("", anyRole, proposalHandler.Submit)
	proposals.GET("", anyRole, proposalHandler.List)

	recommendations := api.Group("/change-requests/:id/recommendations", internalmiddleware.JWT(authSvc))
	recommendations.POST("", anyRole, recommendationHandler.Generate)
	recommendations.GET("", anyRole, recommendationHandler.List)
	recommendations.GET("/export", anyRole, recommendationHandler.Export)
	recommendations.DELETE("", managers, recommendationHandler.Clear)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
