package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"messageboard/internal/app"
	"messageboard/internal/config"
	"messageboard/internal/logger"
	"messageboard/internal/microservices/http-api/handler"
	"messageboard/internal/microservices/http-api/middleware"
	"messageboard/internal/microservices/websocket"
	"messageboard/internal/notify"
	"messageboard/internal/tenant"
)

const requestTimeout = 10 * time.Second

func main() {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer zl.Sync()

	// 2. Wire store and notifications
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(zl)
	defer hub.Close()

	application, err := app.New(ctx, cfg, zl, notify.Channel{Name: "feed", Notifier: hub})
	if err != nil {
		zl.Fatal("startup failed", zap.Error(err))
	}

	// 3. Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(zl))
	if cfg.PrometheusEnabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))

	limiter := middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, zl)
	go limiter.Run(time.Minute, ctx.Done())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": cfg.StoreBackend})
	})

	api := r.Group("/api/v1/messages", limiter.Handler())
	if cfg.JWTSecret != "" {
		api.Use(middleware.AuthMiddleware([]byte(cfg.JWTSecret), zl))
	}
	handler.NewMessageHandler(application.Dispatcher, cfg.StageVariables(), requestTimeout).RegisterRoutes(api)

	stream := r.Group("/api/v1/stream", limiter.Handler())
	if cfg.JWTSecret != "" {
		stream.Use(middleware.AuthMiddleware([]byte(cfg.JWTSecret), zl))
	}
	stream.GET("", websocket.WSHandler(hub, tenant.NewResolver(cfg.TablePrefix), cfg.StageVariables(), zl))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zl.Info("server running", zap.String("addr", srv.Addr), zap.String("backend", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown", zap.Error(err))
	}
	if err := application.Close(shutdownCtx); err != nil {
		zl.Error("close resources", zap.Error(err))
	}
}
