// Package loader 负责加载 configs/ 下的 YAML 配置并派生下游组件所需的强类型配置。
package loader

import (
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"

	loginfra "github.com/bionicotaku/lingo-services-learning/internal/infrastructure/logger"
	"github.com/bionicotaku/lingo-services-learning/internal/validation"

	obswire "github.com/bionicotaku/lingo-utils/observability"
	txconfig "github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/joho/godotenv"
)

const (
	envServiceName    = "SERVICE_NAME"
	envServiceVersion = "SERVICE_VERSION"
	envAppEnv         = "APP_ENV"
	envDatabaseURL    = "DATABASE_URL"
	envPort           = "PORT"
	envPubSubProject  = "PUBSUB_PROJECT_ID"
	envLogLevel       = "LOG_LEVEL"
)

var envFileNames = []string{".env.local", ".env"}

// Params 包含构造配置 Bundle 所需的运行时输入参数。
type Params struct {
	ConfPath string // 配置文件路径（可为空，使用默认值）
	Name     string // 编译期注入的服务名，可被 SERVICE_NAME 覆盖
	Version  string // 编译期注入的版本号，可被 SERVICE_VERSION 覆盖
}

// ServiceMetadata 保存服务标识信息，供日志和可观测性组件使用。
type ServiceMetadata struct {
	Name        string
	Version     string
	Environment string
	InstanceID  string
}

// Bundle 聚合强类型的配置片段，供下游 Wire 注入使用。
type Bundle struct {
	Bootstrap *Bootstrap
	ObsConfig obswire.ObservabilityConfig
	Service   ServiceMetadata
	TxConfig  txconfig.Config
}

// BuildError 捕获配置构建过程中的上下文错误信息。
type BuildError struct {
	Stage string
	Path  string
	Err   error
}

// Error 实现 error 接口，提供包含上下文的错误信息。
func (e BuildError) Error() string {
	if e.Stage == "" {
		return e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("config %s at %q: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Stage, e.Err)
}

// Unwrap 暴露底层错误，支持 errors.Is/As 链式查询。
func (e BuildError) Unwrap() error {
	return e.Err
}

// ObservabilityInfo 将服务元信息转换为 observability.ServiceInfo。
func (m ServiceMetadata) ObservabilityInfo() obswire.ServiceInfo {
	return obswire.ServiceInfo{
		Name:        m.Name,
		Version:     m.Version,
		Environment: m.Environment,
	}
}

// LoggerConfig 将服务元信息转换为日志配置。
func (m ServiceMetadata) LoggerConfig() loginfra.Config {
	return loginfra.Config{
		Service: m.Name,
		Version: m.Version,
		HostID:  m.InstanceID,
		Env:     m.Environment,
		Level:   os.Getenv(envLogLevel),
	}
}

// ParseConfPath 解析 -conf 命令行参数。
func ParseConfPath(fs *flag.FlagSet, args []string) (string, error) {
	var confPath string
	fs.StringVar(&confPath, "conf", "", "config path, eg: -conf configs/config.yaml")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return confPath, nil
}

// Build 从配置文件构建 Bundle。
//
// 流程：
// 1. 解析配置路径（应用回退规则）并加载 .env 文件
// 2. 加载 YAML、应用环境变量覆盖并执行结构体校验
// 3. 推导服务元信息（来自环境变量/默认值）
// 4. 转换可观测性与事务配置
func Build(params Params) (*Bundle, error) {
	confPath := ResolveConfPath(params.ConfPath)
	loadEnvFiles(confPath)

	bootstrap, err := loadBootstrap(confPath)
	if err != nil {
		return nil, err
	}

	meta := buildServiceMetadata(params.Name, params.Version)
	return &Bundle{
		Bootstrap: bootstrap,
		ObsConfig: toObservabilityConfig(bootstrap.Observability),
		Service:   meta,
		TxConfig:  toTxManagerConfig(bootstrap.Data.Postgres.Transaction),
	}, nil
}

// ResolveConfPath 应用回退规则确定要加载的配置目录/文件路径。
// 优先级：显式传入路径 > CONF_PATH 环境变量 > 默认路径。
func ResolveConfPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(envConfPath); env != "" {
		return env
	}
	return defaultConfPath
}

// loadBootstrap 加载、覆盖并校验 Bootstrap。
//
// 错误阶段：
//   - "load": 文件读取失败
//   - "scan": YAML 解析失败或类型不匹配
//   - "validate": 必填字段缺失或约束不满足
func loadBootstrap(confPath string) (*Bootstrap, error) {
	c := config.New(config.WithSource(file.NewSource(confPath)))
	if err := c.Load(); err != nil {
		return nil, BuildError{Stage: "load", Path: confPath, Err: err}
	}
	defer c.Close()

	var bc Bootstrap
	if err := c.Scan(&bc); err != nil {
		return nil, BuildError{Stage: "scan", Path: confPath, Err: err}
	}
	applyEnvOverrides(&bc)

	if err := validation.Struct(&bc); err != nil {
		return nil, BuildError{Stage: "validate", Path: confPath, Err: err}
	}
	return &bc, nil
}

// applyEnvOverrides 应用环境变量覆盖配置文件中的特定字段。
//
//   - DATABASE_URL: 覆盖 data.postgres.dsn
//   - PORT: 覆盖 server.http.addr 的端口部分（保留 host），用于 Cloud Run
//   - PUBSUB_PROJECT_ID: 覆盖 messaging.pubsub.project_id
//
// 环境变量为空时保留配置文件原值。
func applyEnvOverrides(bc *Bootstrap) {
	if bc == nil {
		return
	}
	if dsn := os.Getenv(envDatabaseURL); dsn != "" {
		bc.Data.Postgres.DSN = dsn
	}
	if port := os.Getenv(envPort); port != "" {
		bc.Server.HTTP.Addr = replacePort(bc.Server.HTTP.Addr, port)
	}
	if project := os.Getenv(envPubSubProject); project != "" {
		bc.Messaging.PubSub.ProjectID = project
	}
}

// buildServiceMetadata 构建服务元信息。环境变量优先于编译期注入值。
func buildServiceMetadata(name, version string) ServiceMetadata {
	if env := os.Getenv(envServiceName); env != "" {
		name = env
	}
	if env := os.Getenv(envServiceVersion); env != "" {
		version = env
	}
	host, _ := os.Hostname()

	return ServiceMetadata{
		Name:        resolveServiceName(name),
		Version:     resolveServiceVersion(version),
		Environment: resolveEnvironment(os.Getenv(envAppEnv)),
		InstanceID:  resolveInstanceID(host),
	}
}

// loadEnvFiles best-effort 加载配置相关的 .env 文件，失败时忽略。
func loadEnvFiles(confPath string) {
	files := envFileCandidates(confPath)
	if len(files) == 0 {
		return
	}
	_ = godotenv.Load(files...)
}

// envFileCandidates 按 confPath 目录、当前工作目录的顺序返回存在的 .env 文件。
// godotenv 不覆盖已设置的变量，因此排在前面的文件优先。
func envFileCandidates(confPath string) []string {
	seen := make(map[string]struct{})
	var files []string
	for _, dir := range orderedDirs(confPath) {
		for _, name := range envFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			files = append(files, candidate)
			seen[candidate] = struct{}{}
		}
	}
	return files
}

func orderedDirs(confPath string) []string {
	var dirs []string
	appendUnique := func(path string) {
		if path == "" {
			return
		}
		clean := filepath.Clean(path)
		for _, existing := range dirs {
			if existing == clean {
				return
			}
		}
		dirs = append(dirs, clean)
	}

	if confPath != "" {
		if info, err := os.Stat(confPath); err == nil {
			if info.IsDir() {
				appendUnique(confPath)
			} else {
				appendUnique(filepath.Dir(confPath))
			}
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		appendUnique(cwd)
	}
	return dirs
}

func toObservabilityConfig(src Observability) obswire.ObservabilityConfig {
	cfg := obswire.ObservabilityConfig{
		GlobalAttributes: cloneStringMap(src.GlobalAttributes),
	}
	if tr := src.Tracing; tr != nil {
		cfg.Tracing = &obswire.TracingConfig{
			Enabled:            tr.Enabled,
			Exporter:           tr.Exporter,
			Endpoint:           tr.Endpoint,
			Headers:            cloneStringMap(tr.Headers),
			Insecure:           tr.Insecure,
			SamplingRatio:      tr.SamplingRatio,
			BatchTimeout:       tr.BatchTimeout.Std(),
			ExportTimeout:      tr.ExportTimeout.Std(),
			MaxQueueSize:       tr.MaxQueueSize,
			MaxExportBatchSize: tr.MaxExportBatchSize,
			Required:           tr.Required,
		}
	}
	if mt := src.Metrics; mt != nil {
		cfg.Metrics = &obswire.MetricsConfig{
			Enabled:             mt.Enabled,
			Exporter:            mt.Exporter,
			Endpoint:            mt.Endpoint,
			Headers:             cloneStringMap(mt.Headers),
			Insecure:            mt.Insecure,
			Interval:            mt.Interval.Std(),
			DisableRuntimeStats: mt.DisableRuntimeStats,
			Required:            mt.Required,
			ResourceAttributes:  cloneStringMap(mt.ResourceAttributes),
			GRPCEnabled:         defaultGRPCMetricsEnabled,
			GRPCIncludeHealth:   defaultGRPCIncludeHealth,
		}
	}
	return cfg
}

func toTxManagerConfig(tx Transaction) txconfig.Config {
	cfg := txconfig.Config{
		DefaultIsolation: tx.DefaultIsolation,
		DefaultTimeout:   tx.DefaultTimeout.Std(),
		LockTimeout:      tx.LockTimeout.Std(),
		MaxRetries:       tx.MaxRetries,
	}
	if tx.MetricsEnabled != nil {
		v := *tx.MetricsEnabled
		cfg.MetricsEnabled = &v
	}
	return cfg
}

func cloneStringMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// replacePort 替换地址中的端口部分，保留 host。
//   - "0.0.0.0:8000" -> "0.0.0.0:8080"
//   - ":8000" -> ":8080"
//   - "[::1]:8000" -> "[::1]:8080"
func replacePort(addr, newPort string) string {
	if addr == "" {
		return "0.0.0.0:" + newPort
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "0.0.0.0:" + newPort
	}
	return net.JoinHostPort(host, newPort)
}
