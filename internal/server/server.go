package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend/internal/config"
	"backend/internal/crypto"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/service"
)

// Deps carries everything the HTTP layer needs. Services are constructed in
// main so the ingest processor and the notifier share the same instances.
type Deps struct {
	Auth        service.AuthService
	Detections  service.DetectionService
	Sessions    service.SessionService
	Connections service.ConnectionService
	Aggregator  *service.Aggregator
	Platforms   repository.PlatformRepository
	Patterns    repository.PatternRepository
	Content     repository.ContentRepository
	Sealer      *crypto.Sealer
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

func NewServer(cfg *config.Config, deps Deps, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		logger: logger,
		http: &http.Server{
			Addr:    cfg.Server.Port,
			Handler: router,
		},
	}
	s.setupRoutes(cfg, deps)
	return s
}

func (s *Server) setupRoutes(cfg *config.Config, deps Deps) {
	authHandler := handler.NewAuthHandler(deps.Auth, s.logger)
	platformHandler := handler.NewPlatformHandler(deps.Platforms, deps.Connections, deps.Sealer, s.logger)
	patternHandler := handler.NewPatternHandler(deps.Patterns, deps.Detections, s.logger)
	detectionHandler := handler.NewDetectionHandler(deps.Detections, s.logger)
	sessionHandler := handler.NewSessionHandler(deps.Sessions, s.logger)
	contentHandler := handler.NewContentHandler(deps.Content, s.logger)
	analyticsHandler := handler.NewAnalyticsHandler(deps.Aggregator, s.logger)

	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	auth := s.router.Group("/api/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/setup", authHandler.Setup)

	api := s.router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret, s.logger))

	api.GET("/auth/me", authHandler.Me)
	api.POST("/auth/register", middleware.RequireRoles(models.RoleAdmin), authHandler.Register)

	configure := middleware.RequireRoles(models.RoleAdmin)
	sessionsAllowed := middleware.RequireRoles(models.RoleAdmin, models.RoleMonitor)
	analyticsAllowed := middleware.RequireRoles(models.RoleAdmin, models.RoleAnalyst, models.RoleViewer)

	platforms := api.Group("/platforms")
	{
		platforms.GET("", platformHandler.List)
		platforms.GET("/:id", platformHandler.Get)
		platforms.POST("", configure, platformHandler.Create)
		platforms.PUT("/:id", configure, platformHandler.Update)
		platforms.GET("/:id/connection", platformHandler.GetConnection)
		platforms.POST("/:id/connect", configure, platformHandler.Connect)
		platforms.POST("/:id/disconnect", configure, platformHandler.Disconnect)
		platforms.POST("/:id/connection/reset", configure, platformHandler.ResetErrors)
	}
	api.GET("/connections", platformHandler.ListConnections)

	patterns := api.Group("/patterns")
	{
		patterns.GET("", patternHandler.List)
		patterns.GET("/:id", patternHandler.Get)
		patterns.POST("", configure, patternHandler.Create)
		patterns.PUT("/:id", configure, patternHandler.Update)
		patterns.POST("/:id/test", patternHandler.Test)
		patterns.POST("/:id/categories/:category_id", configure, patternHandler.AttachCategory)
	}
	api.GET("/categories", patternHandler.ListCategories)
	api.POST("/categories", configure, patternHandler.CreateCategory)

	detections := api.Group("/detections")
	{
		detections.GET("", detectionHandler.List)
		detections.GET("/:id", detectionHandler.Get)
		detections.POST("/:id/assign", detectionHandler.Assign)
		detections.POST("/:id/review", detectionHandler.Review)
		detections.POST("/review", detectionHandler.BulkReview)
		detections.POST("/:id/escalate", detectionHandler.Escalate)
		detections.POST("/:id/false-positive", detectionHandler.FalsePositive)
		detections.POST("/:id/resolve", detectionHandler.Resolve)
	}

	sessions := api.Group("/sessions")
	{
		sessions.GET("", sessionHandler.List)
		sessions.GET("/:id", sessionHandler.Get)
		sessions.GET("/:id/content", contentHandler.ListBySession)
		sessions.POST("", sessionsAllowed, sessionHandler.Create)
		sessions.POST("/:id/start", sessionsAllowed, sessionHandler.Start)
		sessions.POST("/:id/pause", sessionsAllowed, sessionHandler.Pause)
		sessions.POST("/:id/stop", sessionsAllowed, sessionHandler.Stop)
		sessions.POST("/:id/statistics", sessionsAllowed, sessionHandler.UpdateStatistics)
	}

	content := api.Group("/content")
	{
		content.GET("/:id", contentHandler.Get)
		content.POST("/:id/suspicious", contentHandler.MarkSuspicious)
		content.POST("/:id/clean", contentHandler.MarkClean)
		content.POST("/:id/process", contentHandler.MarkProcessed)
	}

	analytics := api.Group("/analytics", analyticsAllowed)
	{
		analytics.GET("/dashboard", analyticsHandler.Dashboard)
		analytics.GET("/detections", analyticsHandler.DetectionDaily)
		analytics.GET("/monitoring", analyticsHandler.MonitoringDaily)
		analytics.GET("/alerts", analyticsHandler.AlertMetrics)
		analytics.POST("/alerts/acknowledge", analyticsHandler.AcknowledgeAlert)
		analytics.POST("/alerts/resolve", analyticsHandler.ResolveAlert)
		analytics.GET("/performance", analyticsHandler.PerformanceMetrics)
		analytics.POST("/performance", analyticsHandler.RecordPerformance)
		analytics.GET("/geographic", analyticsHandler.Geographic)
		analytics.POST("/geographic", analyticsHandler.RecordGeographic)
		analytics.GET("/trends", analyticsHandler.Trends)
		analytics.POST("/trends", analyticsHandler.RecordTrend)
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Server shutting down...")
		return s.http.Shutdown(shutdownCtx)
	}
}
