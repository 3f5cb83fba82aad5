// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loanflow/internal/cache"
	"loanflow/internal/common/config"
	"loanflow/internal/common/database"
	"loanflow/internal/common/logger"
	"loanflow/internal/common/messaging"
	"loanflow/internal/httpserver"
	"loanflow/internal/intake"
	"loanflow/internal/status"
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

	zapLog.Info("Starting api-server...")

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

	// --- Init Kafka producer ---
	producer, err := messaging.NewProducer(cfg.Kafka, cfg.Kafka.Topic)
	if err != nil {
		zapLog.Fatal("kafka producer init failed", zap.Error(err))
	}
	defer producer.Close()
	zapLog.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.Topic))

	// --- Wire pipeline components ---
	store := cache.NewStore(rdb.Client, cfg.Cache.KeyPrefix, cfg.Cache.GetTTL())
	intakeSvc := intake.NewService(producer, log)
	lookup := status.NewLookup(store, log)

	server := httpserver.New(intakeSvc, lookup, log)

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      server.Router(),
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("Shutting down api-server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("api-server stopped")
}
