package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zapcore"

	"sahayak/internal/cache"
	"sahayak/internal/classifier"
	"sahayak/internal/config"
	"sahayak/internal/repository"
	"sahayak/internal/resources"
	"sahayak/internal/service"
	"sahayak/internal/transport/rest"
	"sahayak/internal/transport/ws"
)

func main() {
	// Load .env if present; real env vars take precedence
	_ = godotenv.Load()

	cfg := config.Load()
	logger := buildLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx := context.Background()

	// Load AI config and log model settings
	aiConfig := config.DefaultAIConfig()
	if aiConfig.IsEnabled() {
		logger.Info("gemini configured", zap.String("model", aiConfig.Model))
	} else {
		logger.Warn("GEMINI_API_KEY not set, all playbooks will use the fallback")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	logger.Info("connected to MongoDB", zap.String("db", cfg.MongoDB))

	db := mongoClient.Database(cfg.MongoDB)

	// Redis is optional: without it every request goes straight to Gemini
	store, rdb := connectRedis(ctx, cfg.RedisAddr, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	playbookCache := cache.NewPlaybookCache(store, cfg.CacheTTL, logger)

	// Initialize WebSocket hub
	wsHub := ws.NewHub(logger)
	logger.Info("websocket hub started")

	// Initialize repositories
	sosRepo := repository.NewSOSRepo(db)
	playbookRepo := repository.NewPlaybookRepo(db)
	memoryRepo := repository.NewMemoryRepo(db)

	// Initialize services
	authSvc := service.NewAuthService()
	generator := service.NewGeminiService(aiConfig, logger)
	engine := classifier.NewEngine()
	provider := resources.NewStaticProvider()
	pedagogySvc := service.NewPedagogyService(sosRepo, playbookRepo, memoryRepo, engine, generator, provider, playbookCache, logger)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	pedagogySvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:     authSvc,
		PedagogyService: pedagogySvc,
		WSHub:           wsHub,
		Logger:          logger,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen and serve", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func buildLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(level, "debug") {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// connectRedis returns a nil store when Redis is disabled or unreachable, so
// the cache layer degrades to pass-through instead of failing startup.
func connectRedis(ctx context.Context, addr string, logger *zap.Logger) (cache.Store, *redis.Client) {
	if addr == "" {
		logger.Warn("redis caching is disabled (REDIS_ENABLED=false)")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		logger.Warn("redis connection failed, caching disabled", zap.Error(err))
		rdb.Close()
		return nil, nil
	}

	logger.Info("connected to Redis", zap.String("addr", addr))
	return cache.NewRedisStore(rdb), rdb
}
