package api

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/api/handler"
	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/api/middleware"
	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/metrics"
	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
	"github.com/akashshetty1997/memory-machines-backend/internal/pkg/config"
)

// NewGatewayRouter creates the HTTP router for the ingestion gateway.
func NewGatewayRouter(
	cfg *config.Config,
	logger *slog.Logger,
	ingestUseCase handler.LogIngestor,
	m *metrics.GatewayMetrics,
) http.Handler {
	mux := http.NewServeMux()

	ingestHandler := handler.NewIngestHandler(ingestUseCase, logger, m, cfg.MaxTextLength)
	limiter := rate.NewLimiter(rate.Limit(cfg.IngestRPS), cfg.IngestBurst)

	mux.Handle("POST /ingest", middleware.RateLimit(limiter, logger)(ingestHandler))
	mux.HandleFunc("GET /health", healthHandler("gateway"))

	return mux
}

// NewWorkerRouter creates the HTTP router for the processing worker,
// exposing the push delivery endpoint.
func NewWorkerRouter(logger *slog.Logger, processor domain.DeliveryProcessor) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /process", handler.NewProcessHandler(processor, logger))
	mux.HandleFunc("GET /health", healthHandler("worker"))

	return mux
}

func healthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"` + service + `"}`))
	}
}
