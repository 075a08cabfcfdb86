package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/internal/features/auth"
	"github.com/courseflow/courseflow-server/internal/features/course"
	"github.com/courseflow/courseflow-server/internal/features/progress"
	"github.com/courseflow/courseflow-server/internal/features/quiz"
	"github.com/courseflow/courseflow-server/internal/features/user"
	"github.com/courseflow/courseflow-server/internal/features/video"
	"github.com/courseflow/courseflow-server/internal/middleware"
	"github.com/courseflow/courseflow-server/pkg/cache"
	"github.com/courseflow/courseflow-server/pkg/config"
	"github.com/courseflow/courseflow-server/pkg/email"
	"github.com/courseflow/courseflow-server/pkg/health"
	"github.com/courseflow/courseflow-server/pkg/types"
)

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, cfg *config.Config, db *gorm.DB, logger *slog.Logger, cacheClient *cache.RedisClient, emailClient *email.Client, notifier progress.Notifier, googleService *auth.GoogleService) {
	// Health check endpoints (no /api prefix for Kubernetes probes)
	healthHandler := health.NewHandler(db, cacheClient, logger)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.Version)

	// Metrics endpoint for Prometheus
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Database stats endpoint (protected in production)
	if !cfg.IsProduction() {
		engine.GET("/debug/db-stats", healthHandler.DBStats)
	}

	api := engine.Group("/api")

	// Initialize global middleware instance
	middleware.Initialize(db, cfg.JWTSecret, logger)

	// Role chains. SuperAdmin automatically has access to everything
	// (handled in AuthorizeRoles).
	adminOnly := middleware.RequireRoles(types.UserTypeAdmin)
	staffOnly := middleware.RequireRoles(types.UserTypeAdmin, types.UserTypeInstructor)
	allUsers := middleware.RequireRoles(types.UserTypeAll)

	// AccessControl adds the enrollment gate on top of role checks for
	// routes scoped to a course.
	acAll := middleware.AccessControl(types.UserTypeAll)

	authHandler := auth.NewHandler(db, logger, cfg, emailClient, googleService)
	auth.RegisterRoutes(api, authHandler)

	userHandler := user.NewHandler(db, logger)
	user.RegisterRoutes(api, userHandler, staffOnly, allUsers)

	courseHandler := course.NewHandler(db, logger, cacheClient)
	course.RegisterRoutes(api, courseHandler, allUsers, staffOnly, adminOnly)

	videoHandler := video.NewHandler(db, logger)
	video.RegisterRoutes(api, videoHandler, acAll, staffOnly)

	progressHandler := progress.NewHandler(db, logger, notifier, cfg.StrictApproval)
	progress.RegisterRoutes(api, progressHandler, allUsers, acAll, staffOnly)

	quizHandler := quiz.NewHandler(db, logger)
	quiz.RegisterRoutes(api, quizHandler, acAll, staffOnly)
}
