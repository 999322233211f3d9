package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config configuration struct
type Config struct {
	Level      int     `json:"level" yaml:"level" validate:"gte=0,lte=6"`
	Format     string  `json:"format" yaml:"format" validate:"omitempty,oneof=text json"`
	Output     string  `json:"output" yaml:"output" validate:"omitempty,oneof=stdout stderr file"`
	OutputFile string  `json:"output_file" yaml:"output_file" validate:"required_if=Output file"`
	Version    string  `json:"version" yaml:"version"`
	Sentry     *Sentry `json:"sentry" yaml:"sentry"`
}

// Sentry error capture settings, nil when logger.sentry is absent
type Sentry struct {
	Dsn         string `json:"dsn" yaml:"dsn" validate:"required"`
	Environment string `json:"environment" yaml:"environment"`
	Release     string `json:"release" yaml:"release"`
}

// Default returns the logger configuration used when none is configured
func Default() *Config {
	return &Config{
		Level:  4, // logrus.InfoLevel
		Format: "text",
		Output: "stderr",
	}
}

// GetConfig returns the logger configuration
func GetConfig(v *viper.Viper) *Config {
	if !v.IsSet("logger") {
		return Default()
	}

	cfg := &Config{
		Level:      v.GetInt("logger.level"),
		Format:     strings.ToLower(v.GetString("logger.format")),
		Output:     strings.ToLower(v.GetString("logger.output")),
		OutputFile: v.GetString("logger.output_file"),
		Version:    v.GetString("version"),
	}
	if !v.IsSet("logger.level") {
		cfg.Level = Default().Level
	}
	if v.IsSet("logger.sentry.dsn") && v.GetString("logger.sentry.dsn") != "" {
		cfg.Sentry = &Sentry{
			Dsn:         v.GetString("logger.sentry.dsn"),
			Environment: v.GetString("run_mode"),
			Release:     v.GetString("version"),
		}
	}
	return cfg
}
