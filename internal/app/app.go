// Package app connects the storage backends and builds the services shared by
// the server and the command line tools.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"surveystats/config"
	"surveystats/internal/cache"
	surveycfg "surveystats/internal/config"
	"surveystats/internal/event"
	"surveystats/internal/model"
	"surveystats/internal/report"
	"surveystats/internal/repository"
	"surveystats/internal/service"
)

type App struct {
	Config   *config.Config
	Analysis *surveycfg.AnalysisConfig
	Schema   *model.Schema
	Logger   *zap.Logger

	Mongo     *mongo.Client
	Redis     *redis.Client
	Publisher *event.EventPublisher

	ResponseRepo   repository.ResponseRepo
	ReportRepo     repository.ReportRepo
	AnalyticsCache cache.AnalyticsCache

	AuthService     *service.AuthService
	ResponseService *service.ResponseService
	ReportService   *service.ReportService
}

// NewLogger builds a production zap logger; level "debug" lowers the threshold
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// New connects MongoDB, Redis and RabbitMQ and wires every service
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	schema, err := surveycfg.SchemaOrDefault(cfg.SchemaFile)
	if err != nil {
		return nil, err
	}
	analysis, err := surveycfg.DefaultAnalysisConfig(schema.Scale())
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Analysis: analysis, Schema: schema, Logger: logger}

	a.Mongo, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.Mongo.Ping(pingCtx, nil); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	a.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := a.Redis.Ping(pingCtx).Err(); err != nil {
		// reports still work uncached
		logger.Warn("Redis unreachable, report cache disabled until it recovers", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	} else {
		logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
	}

	a.Publisher, err = event.NewEventPublisher(cfg.AMQPURL, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	db := a.Mongo.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		logger.Warn("failed to create indexes", zap.Error(err))
	}
	a.ResponseRepo = repository.NewResponseRepo(db)
	a.ReportRepo = repository.NewReportRepo(db)
	a.AnalyticsCache = cache.NewAnalyticsCache(a.Redis)

	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("JWT_SECRET not set, host tokens are signed with the development key")
	}
	a.AuthService = service.NewAuthService(cfg.HostUsername, cfg.HostPassword, cfg.JWTSecret)
	a.ResponseService = service.NewResponseService(schema, a.ResponseRepo, a.AnalyticsCache, a.Publisher, logger)
	a.ReportService = service.NewReportService(schema, a.ResponseRepo, a.ReportRepo, a.AnalyticsCache, a.Publisher,
		analysis.Options, report.Options{Extended: analysis.Extended}, logger)
	a.ResponseService.SetReportService(a.ReportService)

	return a, nil
}

// Close releases every connection opened by New
func (a *App) Close(ctx context.Context) {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Warn("failed to close event publisher", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			a.Logger.Warn("failed to disconnect MongoDB", zap.Error(err))
		}
	}
}
