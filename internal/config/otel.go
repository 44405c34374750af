package config

// OTelConfig holds observability export configuration, shared by every
// binary. Enabled defaults to true, so defaultOTelConfig must be applied
// before env.Load runs (Load only ever overwrites a field whose env var is
// actually set, never resets one to its zero value).
type OTelConfig struct {
	Enabled          bool   `env:"OTEL_ENABLED"`
	ServiceName      string `env:"OTEL_SERVICE_NAME"`
	ExporterEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ExporterHeaders  string `env:"OTEL_EXPORTER_OTLP_HEADERS"`
}

func defaultOTelConfig(serviceName string) OTelConfig {
	return OTelConfig{Enabled: true, ServiceName: serviceName}
}
