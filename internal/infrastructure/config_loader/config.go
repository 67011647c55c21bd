package loader

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap 是 configs/config.yaml 的顶层结构。
type Bootstrap struct {
	Server        Server        `json:"server"`
	Data          Data          `json:"data"`
	Playback      Playback      `json:"playback"`
	Messaging     Messaging     `json:"messaging"`
	Observability Observability `json:"observability"`
}

// Server 描述入站 HTTP 服务与 Handler 超时。
type Server struct {
	HTTP     HTTPServer      `json:"http"`
	Handlers HandlerTimeouts `json:"handlers"`
}

// HTTPServer 对应 kratos http.Server 的监听参数。
type HTTPServer struct {
	Network string   `json:"network" validate:"omitempty,oneof=tcp tcp4 tcp6"`
	Addr    string   `json:"addr" validate:"required"`
	Timeout Duration `json:"timeout"`
}

// HandlerTimeouts 控制命令/查询 Handler 的超时。
type HandlerTimeouts struct {
	Default Duration `json:"default"`
	Command Duration `json:"command"`
	Query   Duration `json:"query"`
}

// Data 聚合存储相关配置。
type Data struct {
	Postgres Postgres `json:"postgres"`
}

// Postgres 描述连接池与事务默认值。
type Postgres struct {
	DSN                      string      `json:"dsn" validate:"required"`
	MaxOpenConns             int32       `json:"max_open_conns" validate:"gte=0"`
	MinOpenConns             int32       `json:"min_open_conns" validate:"gte=0"`
	MaxConnLifetime          Duration    `json:"max_conn_lifetime"`
	MaxConnIdleTime          Duration    `json:"max_conn_idle_time"`
	HealthCheckPeriod        Duration    `json:"health_check_period"`
	Schema                   string      `json:"schema"`
	EnablePreparedStatements bool        `json:"enable_prepared_statements"`
	Transaction              Transaction `json:"transaction"`
}

// Transaction 对应 txmanager.Config。
type Transaction struct {
	DefaultIsolation string   `json:"default_isolation" validate:"omitempty,oneof=read_committed repeatable_read serializable"`
	DefaultTimeout   Duration `json:"default_timeout"`
	LockTimeout      Duration `json:"lock_timeout"`
	MaxRetries       int      `json:"max_retries" validate:"gte=0,lte=10"`
	MetricsEnabled   *bool    `json:"metrics_enabled"`
}

// Playback 覆盖播放进度判定阈值，零值使用服务默认值。
type Playback struct {
	DefaultDuration          float64  `json:"default_duration" validate:"gte=0"`
	SeekThreshold            float64  `json:"seek_threshold" validate:"gte=0"`
	AbnormalSeekLimit        int32    `json:"abnormal_seek_limit" validate:"gte=0"`
	MinDelta                 float64  `json:"min_delta" validate:"gte=0"`
	MaxDelta                 float64  `json:"max_delta" validate:"gte=0"`
	RateFloor                float64  `json:"rate_floor" validate:"gte=0,lte=1"`
	CompletionRate           float64  `json:"completion_rate" validate:"gte=0,lte=1"`
	EffectiveRate            float64  `json:"effective_rate" validate:"gte=0,lte=1"`
	TriggerProgress          float64  `json:"trigger_progress" validate:"gte=0,lte=1"`
	LessonCompletePercentage float64  `json:"lesson_complete_percentage" validate:"gte=0,lte=100"`
	RollupTimeout            Duration `json:"rollup_timeout"`
}

// Messaging 聚合 Pub/Sub 与 Outbox 发布配置。
type Messaging struct {
	PubSub PubSub `json:"pubsub"`
	Outbox Outbox `json:"outbox"`
}

// PubSub 描述领域事件发布的 Topic。TopicID 为空时不启动发布任务。
type PubSub struct {
	ProjectID          string `json:"project_id" validate:"required_with=TopicID"`
	TopicID            string `json:"topic_id"`
	EmulatorEndpoint   string `json:"emulator_endpoint" validate:"omitempty,hostname_port"`
	OrderingKeyEnabled *bool  `json:"ordering_key_enabled"`
	LoggingEnabled     *bool  `json:"logging_enabled"`
	MetricsEnabled     *bool  `json:"metrics_enabled"`
}

// Outbox 描述发布任务的节奏与重试策略。
type Outbox struct {
	BatchSize      int      `json:"batch_size" validate:"gte=0,lte=1000"`
	TickInterval   Duration `json:"tick_interval"`
	InitialBackoff Duration `json:"initial_backoff"`
	MaxBackoff     Duration `json:"max_backoff"`
	MaxAttempts    int      `json:"max_attempts" validate:"gte=0"`
	PublishTimeout Duration `json:"publish_timeout"`
	Workers        int      `json:"workers" validate:"gte=0,lte=64"`
	LockTTL        Duration `json:"lock_ttl"`
}

// Observability 对应 lingo-utils/observability 的配置。
type Observability struct {
	GlobalAttributes map[string]string `json:"global_attributes"`
	Tracing          *Tracing          `json:"tracing"`
	Metrics          *Metrics          `json:"metrics"`
}

// Tracing 是链路追踪导出配置。
type Tracing struct {
	Enabled            bool              `json:"enabled"`
	Exporter           string            `json:"exporter"`
	Endpoint           string            `json:"endpoint"`
	Headers            map[string]string `json:"headers"`
	Insecure           bool              `json:"insecure"`
	SamplingRatio      float64           `json:"sampling_ratio" validate:"gte=0,lte=1"`
	BatchTimeout       Duration          `json:"batch_timeout"`
	ExportTimeout      Duration          `json:"export_timeout"`
	MaxQueueSize       int               `json:"max_queue_size" validate:"gte=0"`
	MaxExportBatchSize int               `json:"max_export_batch_size" validate:"gte=0"`
	Required           bool              `json:"required"`
}

// Metrics 是指标导出配置。
type Metrics struct {
	Enabled             bool              `json:"enabled"`
	Exporter            string            `json:"exporter"`
	Endpoint            string            `json:"endpoint"`
	Headers             map[string]string `json:"headers"`
	Insecure            bool              `json:"insecure"`
	Interval            Duration          `json:"interval"`
	DisableRuntimeStats bool              `json:"disable_runtime_stats"`
	Required            bool              `json:"required"`
	ResourceAttributes  map[string]string `json:"resource_attributes"`
}

// Duration 支持 "1.5s" 形式的字符串或以秒为单位的数字。
type Duration time.Duration

// Std 返回 time.Duration。
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalJSON 实现 json.Unmarshaler。
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*d = 0
	case float64:
		*d = Duration(v * float64(time.Second))
	case string:
		if v == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
	return nil
}

// MarshalJSON 实现 json.Marshaler。
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
