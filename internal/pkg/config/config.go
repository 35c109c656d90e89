package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration for both services.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	GatewayAddr string `env:"GATEWAY_ADDR" envDefault:":8080"`
	AdminAddr   string `env:"ADMIN_ADDR" envDefault:":9091"`
	WorkerAddr  string `env:"WORKER_ADDR" envDefault:":8081"`

	// Queue transport: "redis" (Streams) or "kafka".
	QueueDriver    string   `env:"QUEUE_DRIVER" envDefault:"redis"`
	RedisAddr      string   `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisStream    string   `env:"REDIS_STREAM" envDefault:"log_records"`
	RedisDLQStream string   `env:"REDIS_DLQ_STREAM" envDefault:"log_records_dlq"`
	KafkaBrokers   []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaTopic     string   `env:"KAFKA_TOPIC" envDefault:"log-records"`
	ConsumerGroup  string   `env:"CONSUMER_GROUP" envDefault:"log-processors"`

	PostgresURL string `env:"POSTGRES_URL,required"`

	MaxTextLength int           `env:"MAX_TEXT_LENGTH" envDefault:"5000"`
	SleepPerChar  time.Duration `env:"SLEEP_PER_CHAR" envDefault:"50ms"`

	IngestRPS   float64 `env:"INGEST_RPS" envDefault:"1000"`
	IngestBurst int     `env:"INGEST_BURST" envDefault:"100"`

	ConsumerBatchSize int           `env:"CONSUMER_BATCH_SIZE" envDefault:"16"`
	ReclaimMinIdle    time.Duration `env:"RECLAIM_MIN_IDLE" envDefault:"30s"`

	WALPath        string `env:"WAL_PATH" envDefault:"./wal"`
	WALSegmentSize int64  `env:"WAL_SEGMENT_SIZE_BYTES" envDefault:"104857600"`  // 100MB
	WALMaxDiskSize int64  `env:"WAL_MAX_DISK_SIZE_BYTES" envDefault:"1073741824"` // 1GB
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
