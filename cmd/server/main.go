package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"multitenant-cms/internal/audit"
	"multitenant-cms/internal/config"
	healthhandler "multitenant-cms/internal/health/handler"
	identityservice "multitenant-cms/internal/identity/service"
	"multitenant-cms/internal/logging"
	"multitenant-cms/internal/platform/rbac"
	"multitenant-cms/internal/policy/engine"
	"multitenant-cms/internal/security"
	"multitenant-cms/internal/seed"
	"multitenant-cms/internal/server"
	"multitenant-cms/internal/server/middleware"
	sessionservice "multitenant-cms/internal/session/service"
	"multitenant-cms/internal/storage"
	"multitenant-cms/internal/telemetry"
	"multitenant-cms/internal/telemetry/metrics"
	"multitenant-cms/internal/telemetry/otel"
	"multitenant-cms/internal/telemetry/producer"
)

const shutdownTimeout = 15 * time.Second

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
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, otel.Settings{
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		StoreDriver: cfg.StoreDriver,
	}, logger.Named("otel"))
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()

	repos, err := storage.Open(cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer repos.Close()

	hasher := security.NewHasher(cfg.BcryptCost)
	if cfg.SeedDemoData {
		res, err := seed.Demo(ctx, repos, hasher)
		if err != nil {
			return err
		}
		logger.Info("demo data", zap.Bool("skipped", res.Skipped),
			zap.Int("accounts", res.Accounts), zap.Int("users", res.Users), zap.Int("memberships", res.Memberships))
	}

	evaluator, err := newEvaluator(ctx, cfg.RolePolicyFile)
	if err != nil {
		return err
	}

	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.EventsKafkaTopic)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	emitters := []telemetry.EventEmitter{otel.NewEventEmitter(providers.LoggerProvider)}
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		emitters = append(emitters, kafkaProducer)
		logger.Info("session events enabled", zap.Strings("brokers", cfg.KafkaBrokersList()), zap.String("topic", cfg.EventsKafkaTopic))
	}

	events := telemetry.NewAsync(telemetry.Multi(emitters...), logger.Named("events"), telemetry.DefaultEmitTimeout)

	m := metrics.New()
	wall := clock.New()
	sessions := sessionservice.NewManager(repos.Sessions, repos.Users, sessionservice.Config{
		AccessTTL:         cfg.AccessTTL(),
		RefreshTTL:        cfg.RefreshTTL(),
		AccessTokenBytes:  cfg.AccessTokenBytes,
		RefreshTokenBytes: cfg.RefreshTokenBytes,
	},
		sessionservice.WithClock(wall),
		sessionservice.WithLogger(logger.Named("sessions")),
		sessionservice.WithMetrics(m),
		sessionservice.WithEvents(events),
	)
	go sessionservice.NewSweeper(repos.Sessions, cfg.SessionSweepInterval(), wall, logger.Named("sweeper"), m).Run(ctx)

	creds := identityservice.NewCredentialStore(repos.Users, repos.Accounts, hasher)
	resolver := rbac.NewResolver(repos.Memberships, evaluator, logger.Named("rbac"), m)
	auditLogger := audit.NewLogger(repos.Audit, middleware.ClientIP, logger.Named("audit"))

	handler := server.NewRouter(server.Deps{
		Auth:        identityservice.NewAuthService(creds, resolver, sessions, auditLogger, wall, logger.Named("auth")),
		Sessions:    sessions,
		Users:       creds,
		Roles:       resolver,
		AuditLogger: auditLogger,
		Stores: server.Stores{
			Accounts:    repos.Accounts,
			Users:       repos.Users,
			Memberships: repos.Memberships,
			Audit:       repos.Audit,
			Deleter:     repos,
		},
		HealthChecks: map[string]healthhandler.Checker{
			"store":  healthhandler.CheckerFunc(repos.Ping),
			"policy": healthhandler.CheckerFunc(evaluator.HealthCheck),
		},
		Metrics:     m,
		Logger:      logger,
		ServiceName: cfg.ServiceName,
	})

	logger.Info("starting", zap.String("store", repos.Driver()), zap.String("env", cfg.Env))
	serveErr := server.Serve(ctx, cfg.HTTPAddr, handler, shutdownTimeout, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// In-flight events go out before the producer and exporters are closed.
	if err := events.Drain(shutdownCtx); err != nil {
		logger.Warn("event drain", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("otel shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
	return serveErr
}

func newEvaluator(ctx context.Context, policyFile string) (*engine.OPAEvaluator, error) {
	if policyFile != "" {
		return engine.NewOPAEvaluatorFromFile(ctx, policyFile)
	}
	return engine.NewOPAEvaluator(ctx, engine.DefaultRolePolicy)
}
