// cmd/decision-worker/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"loanflow/internal/cache"
	"loanflow/internal/common/config"
	"loanflow/internal/common/database"
	"loanflow/internal/common/logger"
	"loanflow/internal/common/messaging"
	"loanflow/internal/common/observability"
	"loanflow/internal/decision"
	"loanflow/internal/storage"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting decision-worker...")

	obs := observability.New("decision-worker")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init PostgreSQL with retry (optional write-behind) ---
	var sink decision.DecisionSink
	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		sink = storage.NewApplicationStore(pg.DB, log)
	}

	// --- Init Kafka consumer and dead-letter producer ---
	consumer, err := messaging.NewConsumer(cfg.Kafka)
	if err != nil {
		zapLog.Fatal("kafka consumer init failed", zap.Error(err))
	}
	defer consumer.Close()

	dlq, err := messaging.NewProducer(cfg.Kafka, cfg.Kafka.GetDeadLetterTopic())
	if err != nil {
		zapLog.Fatal("dead-letter producer init failed", zap.Error(err))
	}
	defer dlq.Close()

	zapLog.Info("Kafka clients initialized",
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("groupId", cfg.Kafka.GroupID),
		zap.String("deadLetterTopic", cfg.Kafka.GetDeadLetterTopic()),
	)

	// --- Wire worker ---
	store := cache.NewStore(rdb.Client, cfg.Cache.KeyPrefix, cfg.Cache.GetTTL())
	worker := decision.NewWorker(consumer, dlq, store, sink, decision.Config{
		ApprovalLimit:   cfg.Decision.ApprovalLimit,
		CacheMaxRetries: cfg.Decision.CacheMaxRetries,
		ProcessTimeout:  config.GetDuration(cfg.Decision.ProcessTimeout),
	}, obs, log)

	// --- Metrics/pprof endpoint ---
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/debug/pprof/", http.DefaultServeMux)
		if err := http.ListenAndServe(":9090", mux); err != nil && err != http.ErrServerClosed {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	// --- Run consume loop until signal or failure ---
	runCtx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- worker.Run(runCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		zapLog.Info("Shutting down decision-worker...")
		cancel()
		// Run lets the in-flight message finish before returning.
		if err := <-errCh; err != nil {
			zapLog.Error("worker exited with error", zap.Error(err))
		}
	case err := <-errCh:
		cancel()
		if err != nil {
			zapLog.Fatal("worker failed", zap.Error(err))
		}
	}

	zapLog.Info("decision-worker stopped")
}
