package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/courseflow/courseflow-server/internal/bootstrap"
	"github.com/courseflow/courseflow-server/internal/features/auth"
	"github.com/courseflow/courseflow-server/internal/http/routes"
	"github.com/courseflow/courseflow-server/pkg/cache"
	"github.com/courseflow/courseflow-server/pkg/config"
	"github.com/courseflow/courseflow-server/pkg/database"
	"github.com/courseflow/courseflow-server/pkg/email"
	"github.com/courseflow/courseflow-server/pkg/jobs"
	"github.com/courseflow/courseflow-server/pkg/logger"
	"github.com/courseflow/courseflow-server/pkg/metrics"
	"github.com/courseflow/courseflow-server/pkg/middleware"
	"github.com/courseflow/courseflow-server/pkg/request"
	socketioserver "github.com/courseflow/courseflow-server/pkg/socketio"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(ctx, cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := database.Close(db, appLogger); err != nil {
			appLogger.Error("database close failed", slog.String("error", err.Error()))
		}
	}()

	if err := bootstrap.ApplyDatabaseMigrations(db, cfg, appLogger); err != nil {
		appLogger.Error("migrations failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := bootstrap.EnsureDefaultSuperAdmin(db, appLogger); err != nil {
		appLogger.Error("ensure super admin failed", slog.String("error", err.Error()))
	}

	// Redis is optional; a missing address disables the catalog cache.
	cacheClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Warn("redis unavailable, catalog caching disabled", slog.String("error", err.Error()))
		cacheClient, _ = cache.NewRedisClient("", "", 0)
	}
	defer cacheClient.Close()

	emailClient := email.NewClient(
		cfg.Email.Host,
		cfg.Email.Port,
		cfg.Email.Username,
		cfg.Email.Password,
		cfg.Email.From,
		cfg.Email.Secure,
	)

	googleService := auth.NewGoogleService(cfg.Google)
	if googleService == nil {
		appLogger.Info("google sign-in disabled, no client credentials configured")
	}

	// Socket.IO pushes approval and unlock events to connected students.
	socketIOServer, err := socketioserver.NewServer(db, appLogger, cfg.JWTSecret)
	if err != nil {
		appLogger.Error("socket.io server initialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer socketIOServer.Close()

	appLogger.Info("socket.io server initialized")

	scheduler := jobs.NewScheduler(appLogger)
	scheduler.AddJob(
		jobs.NewPendingApprovalsDigestJob(db, emailClient, appLogger, time.Hour),
		6*time.Hour,
	)
	scheduler.Start()
	defer scheduler.Stop()

	router := gin.New()

	// Socket.IO is mounted before the full middleware stack; it only needs
	// recovery and CORS.
	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/socket.io/*any", gin.WrapH(socketIOServer.GetHandler()))
	router.POST("/socket.io/*any", gin.WrapH(socketIOServer.GetHandler()))

	router.Use(middleware.RequestID())
	router.Use(middleware.Compression(middleware.BestSpeed))
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CacheControl())
	router.Use(middleware.RequestSizeLimit(10 * 1024 * 1024))
	router.Use(metrics.Middleware())
	router.Use(request.Handler(appLogger))

	// Rate limiting (100 requests per minute per IP)
	rateLimiter := middleware.NewRateLimiter(100, time.Minute)
	router.Use(rateLimiter.Middleware())

	routes.Register(router, cfg, db, appLogger, cacheClient, emailClient, socketIOServer, googleService)

	srv := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLogger.Info("server starting",
			slog.String("addr", cfg.ServerAddress()),
			slog.String("env", cfg.Env),
			slog.String("log_level", cfg.LogLevel),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server listen failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	appLogger.Info("server started successfully")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", slog.String("error", err.Error()))
	} else {
		appLogger.Info("server stopped gracefully")
	}
}
