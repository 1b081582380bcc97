package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"taskflow/internal/cache"
	"taskflow/internal/config"
	"taskflow/internal/handler"
	"taskflow/internal/middleware"
	"taskflow/internal/migrations"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config
}

// ConfigureLogging applies the level and formatter from cfg to the standard
// logrus logger.
func ConfigureLogging(cfg config.LogConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("⚠️  Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func Init(cfg *config.Config) (*Server, error) {
	ConfigureLogging(cfg.Log)
	gin.SetMode(cfg.Server.GinMode)

	if cfg.Server.AutoMigrate {
		runner, err := migrations.Open(cfg.Database.URL())
		if err != nil {
			return nil, fmt.Errorf("❌ failed to prepare migrations: %w", err)
		}
		err = runner.Up()
		runner.Close()
		if err != nil {
			return nil, fmt.Errorf("❌ failed to migrate schema: %w", err)
		}
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Info("✅ Connected to database")

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Warn("⚠️  Redis unreachable, board cache will miss until it recovers")
		} else {
			log.WithField("addr", cfg.Redis.Addr).Info("✅ Connected to redis")
		}
	}
	boards := cache.NewBoardCache(rdb, cfg.Redis.BoardTTL)

	r := gin.New()
	r.Use(middleware.RequestLogger(log.StandardLogger()), gin.Recovery())
	handler.RegisterValidators()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	memberRepo := repository.NewProjectMemberRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Initialize services
	taskService := service.NewTaskService(taskRepo, memberRepo, boards)
	projectService := service.NewProjectService(projectRepo, memberRepo, userRepo, boards)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo, cfg.JWT.Secret, cfg.JWT.Expiry)
	projectHandler := handler.NewProjectHandler(projectService)
	memberHandler := handler.NewMemberHandler(projectService)
	taskHandler := handler.NewTaskHandler(taskService)

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWT.Secret))
	{
		// Project routes
		authorized.POST("/projects", projectHandler.Create)
		authorized.GET("/projects", projectHandler.GetAll)
		authorized.GET("/projects/:id", projectHandler.GetByID)
		authorized.PUT("/projects/:id", projectHandler.Update)
		authorized.DELETE("/projects/:id", projectHandler.Delete)

		// Member routes
		authorized.GET("/projects/:id/members", memberHandler.List)
		authorized.POST("/projects/:id/members", memberHandler.Add)
		authorized.PUT("/projects/:id/members/:userId", memberHandler.UpdateRole)
		authorized.DELETE("/projects/:id/members/:userId", memberHandler.Remove)

		// Task routes
		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks", taskHandler.List)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.GET("/projects/:id/tasks", taskHandler.ListByProject)

		// Kanban routes
		authorized.GET("/projects/:id/kanban", taskHandler.Kanban)
		authorized.PUT("/tasks/:id/status", taskHandler.UpdateStatus)
	}

	return &Server{
		Engine: r,
		DB:     db,
		Redis:  rdb,
		Config: cfg,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: s.Engine,
	}

	go func() {
		log.Infof("🚀 Server running on port %s", s.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.WithError(err).Warn("redis close")
		}
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("✅ Server exited properly")
}
