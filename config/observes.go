package config

import (
	"time"

	"github.com/spf13/viper"
)

// Tracer config struct for OpenTelemetry
type Tracer struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"` // OTLP gRPC endpoint, empty disables tracing

	// Service identification
	ServiceName    string `json:"service_name" yaml:"service_name"`
	ServiceVersion string `json:"service_version" yaml:"service_version"`
	Environment    string `json:"environment" yaml:"environment"`

	// Sampling configuration
	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate" validate:"gte=0,lte=1"`

	// Performance tuning
	MaxExportBatchSize int           `json:"max_export_batch_size" yaml:"max_export_batch_size" validate:"gte=1"`
	BatchTimeout       time.Duration `json:"batch_timeout" yaml:"batch_timeout" validate:"gt=0"`
	ExportTimeout      time.Duration `json:"export_timeout" yaml:"export_timeout" validate:"gt=0"`
}

// Enabled reports whether spans are exported
func (t *Tracer) Enabled() bool { return t != nil && t.Endpoint != "" }

// getTracerConfig get tracer config with defaults
func getTracerConfig(v *viper.Viper) *Tracer {
	return &Tracer{
		Endpoint: v.GetString("observes.tracer.endpoint"),

		ServiceName:    getStringOrDefault(v, "observes.tracer.service_name", v.GetString("app_name")),
		ServiceVersion: getStringOrDefault(v, "observes.tracer.service_version", v.GetString("version")),
		Environment:    getStringOrDefault(v, "observes.tracer.environment", v.GetString("run_mode")),

		// Sampling with default to 100% in development
		SamplingRate: getFloat64OrDefault(v, "observes.tracer.sampling_rate", 1.0),

		MaxExportBatchSize: getIntOrDefault(v, "observes.tracer.max_export_batch_size", 512),
		BatchTimeout:       getDurationOrDefault(v, "observes.tracer.batch_timeout", 5*time.Second),
		ExportTimeout:      getDurationOrDefault(v, "observes.tracer.export_timeout", 30*time.Second),
	}
}

// Observes config struct
type Observes struct {
	Tracer *Tracer
}

// get Observes config
func getObservesConfig(v *viper.Viper) *Observes {
	return &Observes{
		Tracer: getTracerConfig(v),
	}
}
