// Worker consumes session lifecycle events from Kafka and records them in the audit log, and in Loki when
// LOKI_URL is set. Set KAFKA_BROKERS, EVENTS_KAFKA_TOPIC, KAFKA_GROUP_ID and a SQL STORE_DRIVER with DATABASE_URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"multitenant-cms/internal/audit"
	"multitenant-cms/internal/config"
	"multitenant-cms/internal/logging"
	"multitenant-cms/internal/storage"
	telemetrydomain "multitenant-cms/internal/telemetry/domain"
	"multitenant-cms/internal/telemetry/loki"
	"multitenant-cms/internal/telemetry/producer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("worker exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		return errors.New("worker: KAFKA_BROKERS is required")
	}
	if cfg.StoreDriver == config.StoreMemory {
		return errors.New("worker: a SQL STORE_DRIVER is required; the memory store is not shared with the server")
	}

	repos, err := storage.Open(cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer repos.Close()

	consumer, err := producer.NewKafkaConsumer(brokers, cfg.EventsKafkaTopic, cfg.KafkaGroupID, logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker consuming",
		zap.String("topic", cfg.EventsKafkaTopic), zap.String("group", cfg.KafkaGroupID), zap.String("store", repos.Driver()))
	recorder := audit.NewRecorder(repos.Audit, logger.Named("recorder"))
	lokiClient := loki.NewClient(cfg.LokiURL, nil)
	handle := func(ctx context.Context, e *telemetrydomain.Event) error {
		if err := recorder.Handle(ctx, e); err != nil {
			return err
		}
		// Loki is a best-effort copy; the audit log is the record.
		if err := lokiClient.Push(ctx, e); err != nil {
			logger.Warn("loki push failed", zap.String("event_id", e.ID), zap.Error(err))
		}
		return nil
	}
	if err := consumer.Run(ctx, handle); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("worker stopped")
	return nil
}
