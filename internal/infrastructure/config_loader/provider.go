package loader

import (
	"strings"

	loginfra "github.com/bionicotaku/lingo-services-learning/internal/infrastructure/logger"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	txconfig "github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/wire"
)

// ProviderSet exposes configuration-derived dependencies for Wire graphs.
var ProviderSet = wire.NewSet(
	ProvideServiceMetadata,
	ProvideBootstrap,
	ProvideServerConfig,
	ProvideDataConfig,
	ProvidePlaybackConfig,
	ProvidePubSubConfig,
	ProvideOutboxConfig,
	ProvideObservabilityConfig,
	ProvideMetricsConfig,
	ProvideLoggerConfig,
	ProvideObservabilityInfo,
	ProvideTxConfig,
)

// ProvideServiceMetadata returns the resolved ServiceMetadata from the bundle.
func ProvideServiceMetadata(b *Bundle) ServiceMetadata {
	if b == nil {
		return ServiceMetadata{}
	}
	return b.Service
}

// ProvideBootstrap exposes the strongly typed bootstrap configuration.
func ProvideBootstrap(b *Bundle) *Bootstrap {
	if b == nil || b.Bootstrap == nil {
		return &Bootstrap{}
	}
	return b.Bootstrap
}

// ProvideServerConfig returns the server section of the bootstrap configuration.
func ProvideServerConfig(bc *Bootstrap) *Server {
	return &bc.Server
}

// ProvideDataConfig returns the data section of the bootstrap configuration.
func ProvideDataConfig(bc *Bootstrap) *Data {
	return &bc.Data
}

// ProvidePlaybackConfig returns the playback thresholds.
func ProvidePlaybackConfig(bc *Bootstrap) Playback {
	return bc.Playback
}

// ProvidePubSubConfig 转换为 gcpubsub 组件配置。TopicID 为空时发布器与 Outbox 任务均不启用。
func ProvidePubSubConfig(bc *Bootstrap, meta ServiceMetadata) gcpubsub.Config {
	ps := bc.Messaging.PubSub
	return gcpubsub.Config{
		ProjectID:          ps.ProjectID,
		TopicID:            ps.TopicID,
		OrderingKeyEnabled: ps.OrderingKeyEnabled,
		EnableLogging:      ps.LoggingEnabled,
		EnableMetrics:      ps.MetricsEnabled,
		MeterName:          meta.Name + ".gcpubsub",
		EmulatorEndpoint:   ps.EmulatorEndpoint,
	}
}

// ProvideOutboxConfig 转换为共享 Outbox 配置，Schema 与 Postgres 搜索路径保持一致。
func ProvideOutboxConfig(bc *Bootstrap) outboxcfg.Config {
	ob := bc.Messaging.Outbox
	schema := strings.TrimSpace(bc.Data.Postgres.Schema)
	if schema == "" {
		schema = defaultSchema
	}
	return outboxcfg.Config{
		Schema: schema,
		Publisher: outboxcfg.PublisherConfig{
			BatchSize:      ob.BatchSize,
			TickInterval:   ob.TickInterval.Std(),
			InitialBackoff: ob.InitialBackoff.Std(),
			MaxBackoff:     ob.MaxBackoff.Std(),
			MaxAttempts:    ob.MaxAttempts,
			PublishTimeout: ob.PublishTimeout.Std(),
			Workers:        ob.Workers,
			LockTTL:        ob.LockTTL.Std(),
		},
	}
}

// ProvideObservabilityConfig exposes the normalized observability configuration.
func ProvideObservabilityConfig(b *Bundle) obswire.ObservabilityConfig {
	if b == nil {
		return obswire.ObservabilityConfig{}
	}
	return b.ObsConfig
}

// ProvideMetricsConfig exposes the metrics section; nil when metrics are not configured.
func ProvideMetricsConfig(cfg obswire.ObservabilityConfig) *obswire.MetricsConfig {
	return cfg.Metrics
}

// ProvideLoggerConfig derives logger configuration from service metadata.
func ProvideLoggerConfig(meta ServiceMetadata) loginfra.Config {
	return meta.LoggerConfig()
}

// ProvideObservabilityInfo derives observability service info from metadata.
func ProvideObservabilityInfo(meta ServiceMetadata) obswire.ServiceInfo {
	return meta.ObservabilityInfo()
}

// ProvideTxConfig exposes txmanager defaults.
func ProvideTxConfig(b *Bundle) txconfig.Config {
	if b == nil {
		return txconfig.Config{}
	}
	return b.TxConfig
}
