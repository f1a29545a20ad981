package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"memberboard/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
	"go.opentelemetry.io/otel/sdk/resource"
)

type AppMetrics struct {
	authLoginCounter          metric.Int64Counter
	sessionRestoreCounter     metric.Int64Counter
	emailVerificationCounter  metric.Int64Counter
	verificationEmailCounter  metric.Int64Counter
	authReqDuration           metric.Float64Histogram
	rateLimitDecisionCounter  metric.Int64Counter
	middlewareValidationCount metric.Int64Counter
	healthCheckResultCounter  metric.Int64Counter
	healthCheckDuration       metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("memberboard")
	loginCounter, err := meter.Int64Counter("auth.login.attempts")
	if err != nil {
		return nil, err
	}
	restoreCounter, err := meter.Int64Counter("auth.session.restore.attempts")
	if err != nil {
		return nil, err
	}
	verificationCounter, err := meter.Int64Counter("auth.email_verification.attempts")
	if err != nil {
		return nil, err
	}
	verificationMailCounter, err := meter.Int64Counter("auth.verification_email.dispatches")
	if err != nil {
		return nil, err
	}
	authReqDuration, err := meter.Float64Histogram("auth.request.duration", metric.WithUnit("s"), metric.WithDescription("Duration of auth endpoint requests in seconds"))
	if err != nil {
		return nil, err
	}
	rateLimitDecisionCounter, err := meter.Int64Counter("http.rate_limit.decisions")
	if err != nil {
		return nil, err
	}
	middlewareValidationCount, err := meter.Int64Counter("http.middleware.validation.events")
	if err != nil {
		return nil, err
	}
	healthCheckResultCounter, err := meter.Int64Counter("health.check.results")
	if err != nil {
		return nil, err
	}
	healthCheckDuration, err := meter.Float64Histogram(
		"health.check.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of health dependency checks in seconds"),
	)
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		authLoginCounter:          loginCounter,
		sessionRestoreCounter:     restoreCounter,
		emailVerificationCounter:  verificationCounter,
		verificationEmailCounter:  verificationMailCounter,
		authReqDuration:           authReqDuration,
		rateLimitDecisionCounter:  rateLimitDecisionCounter,
		middlewareValidationCount: middlewareValidationCount,
		healthCheckResultCounter:  healthCheckResultCounter,
		healthCheckDuration:       healthCheckDuration,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

// RecordLoginAttempt counts sign-in outcomes per method (local, google).
func RecordLoginAttempt(ctx context.Context, method, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status),
	))
}

// RecordSessionRestore counts remember-me cookie exchanges.
func RecordSessionRestore(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.sessionRestoreCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordEmailVerification counts token consumption outcomes.
func RecordEmailVerification(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.emailVerificationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordVerificationEmail counts outbound verification mail dispatches.
func RecordVerificationEmail(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.verificationEmailCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, d time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.authReqDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, decision string) {
	m := current()
	if m == nil {
		return
	}
	m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("decision", decision),
	))
}

func RecordMiddlewareValidationEvent(ctx context.Context, component, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.middlewareValidationCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckResult(ctx context.Context, dependency, status string, d time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dependency", dependency),
		attribute.String("status", status),
	))
	m.healthCheckDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("dependency", dependency),
	))
}
