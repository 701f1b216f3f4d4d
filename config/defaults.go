// =============================================================================
// 📦 LAO 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		PluginsDir:     "./plugins",
		CacheDir:       "./.lao-cache",
		Parallel:       false,
		MaxParallelism: defaultMaxParallelism(),
		MetricsPort:    9090,
		Log:            DefaultLogConfig(),
		Telemetry:      DefaultTelemetryConfig(),
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "lao",
		SampleRate:   0.1,
	}
}
