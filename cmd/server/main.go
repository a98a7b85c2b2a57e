package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/openkanban/taskboard/internal/config"
	"github.com/openkanban/taskboard/internal/handlers"
	"github.com/openkanban/taskboard/internal/middleware"
	"github.com/openkanban/taskboard/internal/models"
	"github.com/openkanban/taskboard/internal/services"
	"github.com/openkanban/taskboard/internal/utils"
	"github.com/openkanban/taskboard/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	level := "info"
	if cfg.Server.Mode == "debug" {
		level = "debug"
	}
	logger.Init(level)

	// Initialize JWT secret
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	db := models.GetDB()

	// Upload storage
	uploads, err := services.NewUploadService(&cfg.Upload)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	// Mail delivery: asynq-backed when Redis is reachable, in-process otherwise
	mailer := services.NewMailer(&cfg.Email)
	mailQueue := services.InitMailQueue(cfg, mailer)
	if mailQueue.IsAsync() {
		worker := services.NewMailWorker(&cfg.Redis, mailer)
		if err := worker.Start(); err != nil {
			logger.Error().Err(err).Msg("failed to start mail worker, deliveries stay queued")
		} else {
			defer worker.Stop()
		}
	}
	defer mailQueue.Close()

	// Activity log retention
	activityService := services.NewActivityService(db)
	activityService.StartCleanupScheduler(cfg.Activity.RetentionDays)
	defer activityService.StopCleanupScheduler()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS())

	// Health check endpoint
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	// Stored attachment files
	r.Static(cfg.Upload.BaseURL, uploads.Dir())

	authHandler := handlers.NewAuthHandler(db, &cfg.JWT)
	projectHandler := handlers.NewProjectHandler(db, &cfg.Server, uploads)
	sectionHandler := handlers.NewSectionHandler(db, uploads)
	taskHandler := handlers.NewTaskHandler(db, uploads)
	commentHandler := handlers.NewCommentHandler(db)
	activityHandler := handlers.NewActivityHandler(db)

	api := r.Group("/api")
	{
		// Auth routes (public, rate-limited)
		auth := api.Group("/auth")
		auth.Use(middleware.NewRateLimiter(5, 10).Middleware())
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.GET("/count", authHandler.Count)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(db))
		{
			protected.GET("/auth/me", authHandler.Me)
			protected.GET("/auth/search", authHandler.Search)
			protected.GET("/auth/by-email", authHandler.ByEmail)

			// Projects
			protected.GET("/project", projectHandler.List)
			protected.POST("/project", projectHandler.Create)
			protected.GET("/project/:id", projectHandler.Get)
			protected.PUT("/project/:id", projectHandler.Update)
			protected.DELETE("/project/:id", projectHandler.Delete)
			protected.POST("/project/:id/members", projectHandler.AddMember)
			protected.DELETE("/project/:id/members", projectHandler.RemoveMember)
			protected.POST("/project/:id/invite", projectHandler.Invite)

			// Sections
			protected.GET("/section", sectionHandler.List)
			protected.POST("/section", sectionHandler.Create)
			protected.PUT("/section/:id", sectionHandler.Update)
			protected.DELETE("/section/:id", sectionHandler.Delete)

			// Tasks. GET /task/:id lists the tasks of section :id.
			protected.GET("/task/:id", taskHandler.ListBySection)
			protected.POST("/task", taskHandler.Create)
			protected.PATCH("/task/move", taskHandler.Move)
			protected.PUT("/task/:id", taskHandler.Update)
			protected.DELETE("/task/:id", taskHandler.Delete)

			// Attachments
			protected.GET("/task/:id/attachments", taskHandler.ListAttachments)
			protected.POST("/task/:id/attachments", taskHandler.AddAttachment)
			protected.DELETE("/task/:id/attachments/:attachmentId", taskHandler.DeleteAttachment)

			// Comments
			protected.GET("/task/:id/comments", commentHandler.List)
			protected.POST("/task/:id/comments", commentHandler.Add)
			protected.DELETE("/comments/:commentId", commentHandler.Delete)

			// Activity
			protected.GET("/activity/task/:taskId", activityHandler.ListByTask)
		}
	}

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Info().Str("addr", addr).Msg("server starting")
	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
