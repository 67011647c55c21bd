package loader

import "strings"

const (
	// defaultConfPath is the fallback configuration directory when no overrides are provided.
	defaultConfPath = "configs"
	// envConfPath is the env var name that overrides configuration directory when flag is absent.
	envConfPath = "CONF_PATH"
	// defaultServiceName is used when neither ldflags nor SERVICE_NAME provide one.
	defaultServiceName = "learning"
	// defaultServiceVersion is used when neither ldflags nor SERVICE_VERSION provide one.
	defaultServiceVersion = "dev"
	// defaultEnvironment is used when APP_ENV is missing.
	defaultEnvironment = "development"
	// defaultSchema is the Postgres schema that owns learning tables and the outbox.
	defaultSchema = "learning"
	// defaultGRPCMetricsEnabled is off: the service only exposes HTTP.
	defaultGRPCMetricsEnabled = false
	// defaultGRPCIncludeHealth controls whether health check RPCs are exported by default.
	defaultGRPCIncludeHealth = false
)

func resolveServiceName(name string) string {
	if v := strings.TrimSpace(name); v != "" {
		return v
	}
	return defaultServiceName
}

func resolveServiceVersion(version string) string {
	if v := strings.TrimSpace(version); v != "" {
		return v
	}
	return defaultServiceVersion
}

func resolveEnvironment(env string) string {
	if v := strings.TrimSpace(env); v != "" {
		return strings.ToLower(v)
	}
	return defaultEnvironment
}

func resolveInstanceID(host string) string {
	if v := strings.TrimSpace(host); v != "" {
		return v
	}
	return "unknown"
}
