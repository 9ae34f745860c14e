package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/leadsight/visitor-analytics-service/docs"
	"github.com/leadsight/visitor-analytics-service/internal/abuse"
	"github.com/leadsight/visitor-analytics-service/internal/config"
	"github.com/leadsight/visitor-analytics-service/internal/geo"
	"github.com/leadsight/visitor-analytics-service/internal/handler"
	"github.com/leadsight/visitor-analytics-service/internal/identity"
	"github.com/leadsight/visitor-analytics-service/internal/logger"
	"github.com/leadsight/visitor-analytics-service/internal/queue"
	"github.com/leadsight/visitor-analytics-service/internal/queue/sqs"
	"github.com/leadsight/visitor-analytics-service/internal/repository/clickhouse"
	"github.com/leadsight/visitor-analytics-service/internal/repository/postgres"
	"github.com/leadsight/visitor-analytics-service/internal/tracker"
)

// @title Visitor Analytics Service API
// @version 1.0
// @description API for tracking page views and building visitor behavioral profiles
// @host localhost:8080
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		if err := log.Sync(); err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx := context.Background()

	// Transactional store for visitors, sessions, and page events
	pgClient, err := postgres.NewClient(ctx, &cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer func() {
		if err := pgClient.Close(); err != nil {
			log.Error("Failed to close Postgres client", zap.Error(err))
		}
	}()

	if err := pgClient.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize Postgres schema", zap.Error(err))
	}

	visitors := postgres.NewVisitorRepo(pgClient, log)
	sessions := postgres.NewSessionRepo(pgClient, log)
	events := postgres.NewPageEventRepo(pgClient, log)

	// Archive store for the admin metrics endpoint
	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func() {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()
	archiveRepo := clickhouse.NewRepository(chClient, log)

	var publisher queue.ArchivePublisher
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}
	publisher = sqsClient

	locator := geo.NewClient(cfg.Tracking.IPInfoToken,
		time.Duration(cfg.Tracking.GeoTimeoutSec)*time.Second, log)

	blockTTL := time.Duration(cfg.Tracking.AbuseBlockTTLSec) * time.Second
	var guard abuse.Guard
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		guard = abuse.NewRedisGuard(redisClient, cfg.Tracking.AbuseThresholdPerMinute,
			blockTTL, cfg.Redis.FailOpen, log)
		log.Info("Using Redis-backed abuse guard")
	} else {
		guard = abuse.NewMemoryGuard(cfg.Tracking.AbuseThresholdPerMinute, blockTTL, log)
	}

	trackingService := tracker.NewService(visitors, sessions, events, locator, publisher,
		identity.Policy{
			Salt:      cfg.Tracking.IPSalt,
			Anonymize: cfg.Tracking.AnonymizeIPs,
		}, log)

	h := handler.NewHandler(trackingService, visitors, archiveRepo, handler.Options{
		Guard:              guard,
		RateLimitPerMinute: cfg.Tracking.RateLimitPerMinute,
		AdminAPIToken:      cfg.Tracking.AdminAPIToken,
		AllowedOrigins:     cfg.Tracking.AllowedOrigins,
	}, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	log.Info("API server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start API server", zap.Error(err))
	}
}
