// Package logger 构造带 trace/span 关联字段的 kratos Logger。
package logger

import (
	"context"
	"os"
	"strings"

	gclog "github.com/bionicotaku/lingo-utils/gclog"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/trace"
)

// Config captures runtime metadata used to annotate logs.
type Config struct {
	Service string
	Version string
	HostID  string
	Env     string
	Level   string // debug/info/warn/error，空值不过滤
}

// NewLogger builds a Kratos-compatible logger with trace/span enrichment.
func NewLogger(cfg Config) (log.Logger, error) {
	labels := map[string]string{}
	if cfg.HostID != "" {
		labels["service.id"] = cfg.HostID
	}
	baseLogger, err := gclog.NewLogger(
		gclog.WithService(cfg.Service),
		gclog.WithVersion(cfg.Version),
		gclog.WithEnvironment(cfg.Env),
		gclog.WithStaticLabels(labels),
		gclog.EnableSourceLocation(),
	)
	if err != nil {
		return nil, err
	}
	return WithLevel(WithTrace(baseLogger), cfg.Level), nil
}

// WithTrace 为日志追加 trace_id 与 span_id。
func WithTrace(logger log.Logger) log.Logger {
	return log.With(
		logger,
		"trace_id", log.Valuer(func(ctx context.Context) interface{} {
			sc := trace.SpanContextFromContext(ctx)
			if sc.HasTraceID() {
				return sc.TraceID().String()
			}
			return ""
		}),
		"span_id", log.Valuer(func(ctx context.Context) interface{} {
			sc := trace.SpanContextFromContext(ctx)
			if sc.HasSpanID() {
				return sc.SpanID().String()
			}
			return ""
		}),
	)
}

// WithLevel 按级别过滤日志，level 为空时原样返回。
func WithLevel(logger log.Logger, level string) log.Logger {
	level = strings.TrimSpace(level)
	if level == "" {
		return logger
	}
	return log.NewFilter(logger, log.FilterLevel(log.ParseLevel(level)))
}

// DefaultConfig builds Config from environment defaults.
func DefaultConfig(service, version string) Config {
	if service == "" {
		service = "learning"
	}
	if version == "" {
		version = "dev"
	}
	host, _ := os.Hostname()
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	return Config{Service: service, Version: version, HostID: host, Env: env, Level: os.Getenv("LOG_LEVEL")}
}
