package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/studia-dev/classhub-api/api/swagger"
	"github.com/studia-dev/classhub-api/internal/handler"
	"github.com/studia-dev/classhub-api/internal/middleware"
	"github.com/studia-dev/classhub-api/internal/models"
	"github.com/studia-dev/classhub-api/internal/notify"
	"github.com/studia-dev/classhub-api/internal/repository"
	"github.com/studia-dev/classhub-api/internal/service"
	"github.com/studia-dev/classhub-api/pkg/cache"
	"github.com/studia-dev/classhub-api/pkg/config"
	"github.com/studia-dev/classhub-api/pkg/database"
	appErrors "github.com/studia-dev/classhub-api/pkg/errors"
	"github.com/studia-dev/classhub-api/pkg/logger"
	"github.com/studia-dev/classhub-api/pkg/mail"
	corsmiddleware "github.com/studia-dev/classhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studia-dev/classhub-api/pkg/middleware/requestid"
	"github.com/studia-dev/classhub-api/pkg/response"
)

// @title ClassHub API
// @version 1.0.0
// @description Classroom project submission and grading service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Outbound mail.
	var mailer mail.Mailer
	switch cfg.Mail.Backend {
	case "sendgrid":
		mailer = mail.NewSendgridMailer(cfg.Mail.SendgridKey, cfg.Mail.FromName, cfg.Mail.FromAddress)
	default:
		mailer = mail.NewConsoleMailer(logr)
	}

	var emitter notify.Emitter = notify.NopEmitter{}
	var dispatcher *notify.Dispatcher
	if cfg.Notifications.Enabled {
		dispatcher = notify.NewDispatcher(mailer, logr, notify.DispatcherConfig{
			Workers:    cfg.Notifications.Workers,
			BufferSize: cfg.Notifications.BufferSize,
			SiteURL:    cfg.SiteURL,
			Recorder:   metricsService,
		})
		dispatcher.Start(context.Background())
		defer dispatcher.Stop()
		emitter = dispatcher
	}

	// Services.
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "classhub-api",
	})
	classroomService := service.NewClassroomService(classroomRepo, membershipRepo, userRepo, validate, logr)
	membershipService := service.NewMembershipService(classroomRepo, membershipRepo, userRepo, userRepo, emitter, validate, logr)
	submissionService := service.NewSubmissionService(submissionRepo, classroomRepo, membershipRepo, userRepo, userRepo, emitter, validate, logr)
	submissionService.AttachMetrics(metricsService)
	reportService := service.NewReportService(statsRepo, classroomRepo, submissionRepo, cacheService, cfg.Reports.CacheTTL, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	classroomHandler := handler.NewClassroomHandler(classroomService, membershipService)
	submissionHandler := handler.NewSubmissionHandler(submissionService)
	reportHandler := handler.NewReportHandler(reportService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register/student", authHandler.RegisterStudent)
			auth.POST("/register/teacher", authHandler.RegisterTeacher)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		}

		protected := api.Group("")
		protected.Use(middleware.JWT(authService))
		{
			protected.GET("/me", authHandler.Me)
			protected.GET("/dashboard", reportHandler.Dashboard)
			protected.GET("/grades", middleware.RequireRoles(models.RoleStudent), submissionHandler.Grades)

			classrooms := protected.Group("/classrooms")
			{
				classrooms.POST("", middleware.RequireRoles(models.RoleTeacher), classroomHandler.Create)
				classrooms.GET("", classroomHandler.List)
				classrooms.POST("/join", middleware.RequireRoles(models.RoleStudent), classroomHandler.Join)
				classrooms.GET("/:id", classroomHandler.Detail)
				classrooms.PUT("/:id", middleware.RequireRoles(models.RoleTeacher), classroomHandler.Update)
				classrooms.DELETE("/:id", middleware.RequireRoles(models.RoleTeacher), classroomHandler.Delete)
				classrooms.DELETE("/:id/membership", middleware.RequireRoles(models.RoleStudent), classroomHandler.Leave)
				classrooms.GET("/:id/members", classroomHandler.Members)
				classrooms.GET("/:id/report", middleware.RequireRoles(models.RoleTeacher), reportHandler.Statistics)
				classrooms.GET("/:id/report/export", middleware.RequireRoles(models.RoleTeacher), reportHandler.Export)
			}

			submissions := protected.Group("/submissions")
			{
				submissions.POST("", middleware.RequireRoles(models.RoleStudent), submissionHandler.Create)
				submissions.GET("", submissionHandler.List)
				submissions.GET("/:id", submissionHandler.Detail)
				submissions.PUT("/:id", middleware.RequireRoles(models.RoleStudent), submissionHandler.Update)
				submissions.DELETE("/:id", middleware.RequireRoles(models.RoleStudent), submissionHandler.Delete)
				submissions.POST("/:id/submit", middleware.RequireRoles(models.RoleStudent), submissionHandler.Submit)
				submissions.PUT("/:id/grade", middleware.RequireRoles(models.RoleTeacher), submissionHandler.Grade)
			}
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
