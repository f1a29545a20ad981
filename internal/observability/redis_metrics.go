package observability

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var redisInstrumentationOnce sync.Once

// InstrumentRedisClient hooks limiter-command metrics into the provided
// client. The only Redis traffic this service generates is the rate
// limiter script (eval/evalsha plus script loading) and health pings,
// so the instrumentation tracks those families and the pool saturation
// rather than a general keyspace surface. Safe to call multiple times;
// the hook is installed once per process.
func InstrumentRedisClient(client redis.UniversalClient, logger *slog.Logger) {
	if client == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	redisInstrumentationOnce.Do(func() {
		hook, err := newRedisLimiterHook(otel.Meter("memberboard"), client.PoolStats)
		if err != nil {
			logger.Warn("redis limiter instrumentation disabled", "error", err)
			return
		}
		client.AddHook(hook)
		logger.Info("redis limiter instrumentation enabled")
	})
}

type redisLimiterHook struct {
	cmdTotal   metric.Int64Counter
	cmdErrors  metric.Int64Counter
	cmdLatency metric.Float64Histogram
}

func newRedisLimiterHook(meter metric.Meter, poolStats func() *redis.PoolStats) (*redisLimiterHook, error) {
	cmdTotal, err := meter.Int64Counter(
		"redis.limiter.commands",
		metric.WithDescription("Redis commands issued by the rate limiter and health probes"),
	)
	if err != nil {
		return nil, err
	}
	cmdErrors, err := meter.Int64Counter(
		"redis.limiter.command_errors",
		metric.WithDescription("Redis command failures, by error class"),
	)
	if err != nil {
		return nil, err
	}
	cmdLatency, err := meter.Float64Histogram(
		"redis.limiter.command_duration",
		metric.WithUnit("s"),
		metric.WithDescription("Redis command latency in seconds"),
	)
	if err != nil {
		return nil, err
	}

	poolSaturation, err := meter.Float64ObservableGauge(
		"redis.pool.saturation",
		metric.WithUnit("1"),
		metric.WithDescription("Redis pool saturation ratio (used_conns / total_conns)"),
	)
	if err != nil {
		return nil, err
	}
	_, err = meter.RegisterCallback(func(ctx context.Context, observer metric.Observer) error {
		stats := poolStats()
		if stats != nil && stats.TotalConns > 0 {
			used := float64(stats.TotalConns - stats.IdleConns)
			observer.ObserveFloat64(poolSaturation, used/float64(stats.TotalConns))
		}
		return nil
	}, poolSaturation)
	if err != nil {
		return nil, err
	}

	return &redisLimiterHook{
		cmdTotal:   cmdTotal,
		cmdErrors:  cmdErrors,
		cmdLatency: cmdLatency,
	}, nil
}

func (h *redisLimiterHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *redisLimiterHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.record(ctx, cmd.Name(), err, time.Since(start))
		return err
	}
}

func (h *redisLimiterHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		duration := time.Since(start)
		for _, cmd := range cmds {
			h.record(ctx, cmd.Name(), cmd.Err(), duration)
		}
		return err
	}
}

func (h *redisLimiterHook) record(ctx context.Context, name string, err error, duration time.Duration) {
	command := limiterCommandFamily(name)
	status := "success"
	if err != nil && err != redis.Nil {
		status = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	)
	h.cmdTotal.Add(ctx, 1, attrs)
	h.cmdLatency.Record(ctx, duration.Seconds(), attrs)

	if status == "error" {
		h.cmdErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("error_type", classifyRedisError(err)),
		))
	}
}

// limiterCommandFamily collapses command names into the small set this
// service issues, keeping the metric cardinality bounded even if a
// client internals change adds commands.
func limiterCommandFamily(name string) string {
	switch strings.ToLower(name) {
	case "eval", "evalsha", "script":
		return "script"
	case "ping", "hello":
		return "ping"
	default:
		return "other"
	}
}

func classifyRedisError(err error) string {
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	case strings.Contains(errStr, "connection"):
		return "connection"
	default:
		return "other"
	}
}
