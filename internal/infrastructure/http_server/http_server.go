// Package httpserver wires the inbound HTTP server and its middleware stack.
package httpserver

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/controllers"
	loader "github.com/bionicotaku/lingo-services-learning/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-learning/internal/infrastructure/database"

	"github.com/bionicotaku/lingo-utils/observability"
	obsTrace "github.com/bionicotaku/lingo-utils/observability/tracing"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/metadata"
	"github.com/go-kratos/kratos/v2/middleware/ratelimit"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// PathHealthz 是存活探针路径。
	PathHealthz = "/healthz"
	// PathReadyz 是就绪探针路径，会检查数据库连通性。
	PathReadyz = "/readyz"

	readinessTimeout = 2 * time.Second
	metadataPrefix   = "x-md-"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *loader.Server,
	metricsCfg *observability.MetricsConfig,
	probe database.Pinger,
	playback *controllers.PlaybackHandler,
	progress *controllers.ProgressHandler,
	logger log.Logger,
) *khttp.Server {
	// metricsCfg 缺省时默认开启 HTTP 指标。
	metricsEnabled := true
	if metricsCfg != nil {
		metricsEnabled = metricsCfg.Enabled
	}

	opts := []khttp.ServerOption{
		khttp.Middleware(
			obsTrace.Server(),
			recovery.Recovery(),
			metadata.Server(
				metadata.WithPropagatedPrefix(metadataPrefix),
			),
			ratelimit.Server(),
			logging.Server(logger),
		),
	}
	if metricsEnabled {
		opts = append(opts, khttp.Filter(newMetricsFilter()))
	}
	if c != nil {
		if c.HTTP.Network != "" {
			opts = append(opts, khttp.Network(c.HTTP.Network))
		}
		if c.HTTP.Addr != "" {
			opts = append(opts, khttp.Address(c.HTTP.Addr))
		}
		if d := c.HTTP.Timeout.Std(); d > 0 {
			opts = append(opts, khttp.Timeout(d))
		}
	}

	srv := khttp.NewServer(opts...)
	srv.Handle(PathHealthz, stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
	}))
	srv.Handle(PathReadyz, readinessHandler(probe, log.NewHelper(logger)))

	controllers.RegisterHTTPRoutes(srv, playback, progress)
	return srv
}

func readinessHandler(probe database.Pinger, helper *log.Helper) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		status := map[string]string{"status": "ok"}
		code := stdhttp.StatusOK
		if probe != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := probe.Ping(ctx); err != nil {
				helper.WithContext(ctx).Warnf("readiness probe failed: %v", err)
				status = map[string]string{"status": "unavailable", "database": err.Error()}
				code = stdhttp.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})
}

// newMetricsFilter 为业务路由记录 otelhttp 指标，探针请求不计入。
// Span 由 obsTrace 中间件创建，这里只产出指标。
func newMetricsFilter() khttp.FilterFunc {
	return otelhttp.NewMiddleware("learning.http",
		otelhttp.WithMeterProvider(otel.GetMeterProvider()),
		otelhttp.WithTracerProvider(noop.NewTracerProvider()),
		otelhttp.WithFilter(func(r *stdhttp.Request) bool {
			return r.URL.Path != PathHealthz && r.URL.Path != PathReadyz
		}),
	)
}
