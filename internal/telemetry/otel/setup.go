// Package otel wires the CMS into OpenTelemetry: trace, metric and log providers exporting over OTLP/gRPC,
// and an adapter that records session events as OTel log records.
package otel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.uber.org/zap"
)

const (
	defaultCollectorPort  = "4317"
	defaultMetricInterval = 30 * time.Second

	// StoreDriverKey is the resource attribute naming the session store backend.
	StoreDriverKey = attribute.Key("cms.store.driver")
)

// Settings describe where and as what this process reports.
type Settings struct {
	// Endpoint is the collector as host[:port] or an http(s) URL. Empty keeps telemetry in-process.
	Endpoint string
	// Insecure forces plaintext even for https endpoints.
	Insecure    bool
	ServiceName string
	// Environment becomes deployment.environment.name (APP_ENV).
	Environment string
	// StoreDriver is memory, postgres or sqlite.
	StoreDriver string
	// MetricInterval is the OTLP metric push period; zero means 30s.
	MetricInterval time.Duration
}

// Providers holds the process-wide providers. Call Shutdown once on exit.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider

	shutdown shutdownChain
	logger   *zap.Logger
}

// Resource describes this service: service.name, deployment.environment.name and the store driver.
func Resource(s Settings) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(s.ServiceName)}
	if s.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentName(s.Environment))
	}
	if s.StoreDriver != "" {
		attrs = append(attrs, StoreDriverKey.String(s.StoreDriver))
	}
	return resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
}

// collectorTarget turns an endpoint setting into the host:port to dial and whether to skip TLS.
// Paths such as /v1/traces are HTTP-exporter conventions and are dropped. A bare host:port is plaintext.
func collectorTarget(endpoint string, forceInsecure bool) (target string, plaintext bool, err error) {
	scheme := "http"
	hostport := endpoint
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return "", false, fmt.Errorf("otlp endpoint %q: %w", endpoint, err)
		}
		scheme, hostport = u.Scheme, u.Host
	}
	if scheme != "http" && scheme != "https" {
		return "", false, fmt.Errorf("otlp endpoint %q: scheme must be http or https", endpoint)
	}
	if hostport == "" {
		return "", false, fmt.Errorf("otlp endpoint %q: missing host", endpoint)
	}
	if _, _, splitErr := net.SplitHostPort(hostport); splitErr != nil {
		hostport = net.JoinHostPort(strings.Trim(hostport, "[]"), defaultCollectorPort)
	}
	return hostport, forceInsecure || scheme == "http", nil
}

// NewProviders builds the providers for s. With no endpoint the SDK providers are still returned, so
// otelhttp spans and the session event adapter work, but nothing leaves the process.
func NewProviders(ctx context.Context, s Settings, logger *zap.Logger) (*Providers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	res, err := Resource(s)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	endpoint := strings.TrimSpace(s.Endpoint)
	if endpoint == "" {
		p := &Providers{
			TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithResource(res)),
			MeterProvider:  metric.NewMeterProvider(metric.WithResource(res)),
			LoggerProvider: sdklog.NewLoggerProvider(sdklog.WithResource(res)),
			logger:         logger,
		}
		p.shutdown = shutdownChain{p.TracerProvider.Shutdown, p.MeterProvider.Shutdown, p.LoggerProvider.Shutdown}
		return p, nil
	}

	target, plaintext, err := collectorTarget(endpoint, s.Insecure)
	if err != nil {
		return nil, err
	}
	interval := s.MetricInterval
	if interval <= 0 {
		interval = defaultMetricInterval
	}

	p := &Providers{logger: logger}
	fail := func(err error) (*Providers, error) {
		_ = p.shutdown.run(ctx, logger)
		return nil, err
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(target)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(target)}
	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(target)}
	if plaintext {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}

	traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return fail(fmt.Errorf("otlp traces: %w", err))
	}
	p.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp), sdktrace.WithResource(res))
	p.shutdown = append(p.shutdown, p.TracerProvider.Shutdown)

	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return fail(fmt.Errorf("otlp metrics: %w", err))
	}
	p.MeterProvider = metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metricExp, metric.WithInterval(interval))),
	)
	p.shutdown = append(p.shutdown, p.MeterProvider.Shutdown)

	logExp, err := otlploggrpc.New(ctx, logOpts...)
	if err != nil {
		return fail(fmt.Errorf("otlp logs: %w", err))
	}
	p.LoggerProvider = sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)
	p.shutdown = append(p.shutdown, p.LoggerProvider.Shutdown)

	logger.Info("otel export enabled", zap.String("collector", target), zap.Bool("plaintext", plaintext))
	return p, nil
}

// SetGlobal installs the tracer and meter providers and the W3C propagators used by otelhttp.
// The logger provider is not global; session events reach it through NewEventEmitter.
func (p *Providers) SetGlobal() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if p.TracerProvider != nil {
		otel.SetTracerProvider(p.TracerProvider)
	}
	if p.MeterProvider != nil {
		otel.SetMeterProvider(p.MeterProvider)
	}
}

// Shutdown flushes and stops the providers, last created first.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.shutdown.run(ctx, p.logger)
}

type shutdownChain []func(context.Context) error

func (c shutdownChain) run(ctx context.Context, logger *zap.Logger) error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			logger.Warn("otel: shutdown", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
