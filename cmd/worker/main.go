package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/api"
	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/api/middleware"
	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/metrics"
	kafkaqueue "github.com/akashshetty1997/memory-machines-backend/internal/adapter/queue/kafka"
	redisqueue "github.com/akashshetty1997/memory-machines-backend/internal/adapter/queue/redis"
	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/repository/postgres"
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
	log.Info("starting processing worker")

	m := metrics.NewWorkerMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Document store ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	log.Info("connected to postgres")

	store := postgres.NewProcessedLogRepository(db, log)
	processUseCase := usecase.NewProcessLogUseCase(store, log, cfg.SleepPerChar)

	// --- Queue consumer ---
	consumerName, err := os.Hostname()
	if err != nil {
		log.Warn("could not get hostname for consumer name, using default", "error", err)
		consumerName = "worker-default"
	}

	switch cfg.QueueDriver {
	case "kafka":
		consumer := kafkaqueue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ConsumerGroup, log, processUseCase, m)
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("kafka consumer stopped", "error", err)
				stop()
			}
		}()

	case "redis":
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		log.Info("connected to redis")

		consumer, err := redisqueue.NewConsumer(
			redisClient, log, processUseCase, m,
			cfg.RedisStream, cfg.RedisDLQStream, cfg.ConsumerGroup, consumerName,
			cfg.ConsumerBatchSize, cfg.ReclaimMinIdle,
		)
		if err != nil {
			log.Error("failed to create redis consumer", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("redis consumer stopped", "error", err)
				stop()
			}
		}()

	default:
		log.Error("unknown queue driver", "driver", cfg.QueueDriver)
		os.Exit(1)
	}

	// --- Push endpoint, health, metrics ---
	mux := http.NewServeMux()
	mux.Handle("/", api.NewWorkerRouter(log, processUseCase))
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        cfg.WorkerAddr,
		Handler:     middleware.Logging(log)(mux),
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting worker server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("worker server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down worker...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("worker server shutdown failed", "error", err)
	}

	log.Info("worker shut down gracefully")
}
