package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"presence-service/internal/admission"
	"presence-service/internal/config"
	"presence-service/internal/database"
	"presence-service/internal/handler"
	"presence-service/internal/job"
	"presence-service/internal/metrics"
	"presence-service/internal/mirror"
	"presence-service/internal/presence"
	"presence-service/internal/repository"
	"presence-service/internal/router"
	"presence-service/internal/store"
	"presence-service/internal/websocket"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Presence Service",
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Env),
		zap.String("base_path", cfg.Server.BasePath),
	)

	db, err := database.New(database.Config{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Debug:           cfg.Server.LogLevel == "debug",
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	if err := database.AutoMigrate(db, logger); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	redisClient, err := database.NewRedis(context.Background(), cfg.Redis, logger)
	if err != nil {
		// the mirror is optional; run without it
		logger.Warn("Redis unavailable, presence mirror disabled", zap.Error(err))
		redisClient = nil
	}

	m := metrics.NewWithLogger(logger)

	roomStore := store.NewAdapter(repository.NewRoomRepository(db), cfg.Store.Timeout, m, logger)
	engine := admission.NewEngine(roomStore, logger)
	manager := presence.NewManager(logger)

	// keep the interfaces nil, not typed-nil, when Redis is off
	var (
		hubMirror   websocket.Mirror
		onlineUsers handler.OnlineLister
		cleaner     job.MirrorCleaner
	)
	if redisClient != nil {
		publisher := mirror.NewPublisher(redisClient, cfg.Redis.Timeout, m, logger)
		hubMirror, onlineUsers, cleaner = publisher, publisher, publisher
	}

	hub := websocket.NewHub(manager, engine, roomStore, hubMirror, m, logger, websocket.Options{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		SendBufferSize:  cfg.WebSocket.SendBufferSize,
		MaxMessageSize:  cfg.WebSocket.MaxMessageSize,
		ReplyRejections: cfg.WebSocket.ReplyRejections,
	})

	r := router.Setup(router.Deps{
		Config:      cfg,
		DB:          db,
		RedisClient: redisClient,
		Hub:         hub,
		Presence:    handler.NewPresenceHandler(manager, onlineUsers, logger),
		Metrics:     m,
		Logger:      logger,
	})

	sweepJob := job.NewSweepJob(manager, cleaner, m, logger, cfg.Jobs.SweepSchedule)
	if err := sweepJob.Start(); err != nil {
		logger.Fatal("Failed to start hive sweep job", zap.Error(err))
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	go func() {
		logger.Info("Presence Service started successfully", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// hijacked websocket connections are not tracked by srv.Shutdown
	hub.Shutdown()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	sweepJob.Stop()

	// give read loops a moment to detach and publish their final snapshots
	time.Sleep(200 * time.Millisecond)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		logger.Warn("Failed to close database", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
