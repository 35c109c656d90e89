package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/api"
	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/api/middleware"
	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/metrics"
	kafkaqueue "github.com/akashshetty1997/memory-machines-backend/internal/adapter/queue/kafka"
	redisqueue "github.com/akashshetty1997/memory-machines-backend/internal/adapter/queue/redis"
	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/repository/wal"
	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
	"github.com/akashshetty1997/memory-machines-backend/internal/pkg/config"
	"github.com/akashshetty1997/memory-machines-backend/internal/pkg/logger"
	"github.com/akashshetty1997/memory-machines-backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting ingestion gateway")

	m := metrics.NewGatewayMetrics()

	// --- Admin and metrics server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())

	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		log.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful shutdown context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Queue publisher ---
	var publisher domain.QueuePublisher
	switch cfg.QueueDriver {
	case "kafka":
		kafkaPublisher := kafkaqueue.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log, m)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info("using kafka queue", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)

	case "redis":
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("could not connect to redis, will proceed in WAL-only mode", "error", err)
		}

		walRepo, err := wal.NewWALRepository(cfg.WALPath, cfg.WALSegmentSize, cfg.WALMaxDiskSize, log)
		if err != nil {
			log.Error("failed to initialize WAL repository", "error", err)
			os.Exit(1)
		}
		defer walRepo.Close()

		redisPublisher := redisqueue.NewPublisher(redisClient, log, cfg.RedisStream, walRepo, m)
		go redisPublisher.Start(ctx)
		go redisPublisher.StartHealthCheck(ctx, 5*time.Second)
		publisher = redisPublisher
		log.Info("using redis streams queue", "addr", cfg.RedisAddr, "stream", cfg.RedisStream)

	default:
		log.Error("unknown queue driver", "driver", cfg.QueueDriver)
		os.Exit(1)
	}

	// --- Use case and server ---
	ingestUseCase := usecase.NewIngestLogUseCase(publisher, log)

	router := api.NewGatewayRouter(cfg, log, ingestUseCase, m)
	server := &http.Server{
		Addr:         cfg.GatewayAddr,
		Handler:      middleware.Logging(log)(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		log.Info("starting gateway server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("gateway server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Error("admin server shutdown failed", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("gateway server shutdown failed", "error", err)
	}

	log.Info("gateway shut down gracefully")
}
