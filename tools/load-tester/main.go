package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

func main() {
	targetURL := flag.String("url", "http://localhost:8080/ingest", "Target URL for ingestion")
	tenantID := flag.String("tenant", "load_test", "Tenant ID to ingest under")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 1000, "Requests per second limit")
	flag.Parse()

	log.Printf("Starting load test on %s", *targetURL)
	log.Printf("Tenant: %s, Concurrency: %d, Duration: %s, RPS: %d", *tenantID, *concurrency, *duration, *rps)

	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 100) // Allow bursts up to 100

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			client := &http.Client{
				Timeout: 5 * time.Second,
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
					limiter.Wait(ctx)

					logID := uuid.NewString()
					payload := fmt.Sprintf(
						`{"tenant_id": "%s", "log_id": "%s", "text": "User 555-0199 from worker %d accessed the system at %s"}`,
						*tenantID, logID, workerID, time.Now().Format(time.RFC3339Nano))

					req, err := http.NewRequestWithContext(ctx, http.MethodPost, *targetURL, bytes.NewBufferString(payload))
					if err != nil {
						continue
					}
					req.Header.Set("Content-Type", "application/json")
					req.Header.Set("X-Request-ID", uuid.NewString())

					resp, err := client.Do(req)
					if err != nil {
						errorCount.Add(1)
						continue
					}
					resp.Body.Close()

					if resp.StatusCode == http.StatusAccepted {
						successCount.Add(1)
					} else {
						errorCount.Add(1)
					}
				}
			}
		}(i)
	}

	wg.Wait()

	total := successCount.Load() + errorCount.Load()
	log.Printf("Load test finished. Total: %d, Accepted: %d, Errors: %d, Effective RPS: %.1f",
		total, successCount.Load(), errorCount.Load(), float64(total)/duration.Seconds())
}
