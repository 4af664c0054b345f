// Worker consumes committed audit entries from Kafka and pushes them to Loki.
// Requires KAFKA_BROKERS and LOKI_URL; AUDIT_KAFKA_TOPIC and KAFKA_GROUP_ID have defaults.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"bizzytrack/backend/internal/config"
	"bizzytrack/backend/internal/logging"
	"bizzytrack/backend/internal/telemetry/loki"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile, Development: cfg.Env == "development"})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		logger.Fatal("worker: KAFKA_BROKERS is required")
	}
	client, err := loki.NewClient(cfg.LokiURL, nil)
	if err != nil {
		logger.Fatal("worker: LOKI_URL is required", zap.Error(err))
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.AuditKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker: consuming",
		zap.String("topic", cfg.AuditKafkaTopic),
		zap.String("group", cfg.KafkaGroupID),
		zap.String("loki", cfg.LokiURL),
	)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("worker: stopped")
				return
			}
			logger.Warn("worker: kafka read failed", zap.Error(err))
			continue
		}

		pushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := client.PushAuditJSON(pushCtx, msg.Value); err != nil {
			logger.Warn("worker: loki push failed",
				zap.Error(err),
				zap.String("key", string(msg.Key)),
				zap.Int64("offset", msg.Offset),
			)
		}
		cancel()
	}
}
