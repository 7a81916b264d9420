package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvConfig is the machine-local environment layer. These settings differ
// per workstation, not per project, so they never belong in crpipe.yaml.
type EnvConfig struct {
	Python      string `envconfig:"CRPIPE_PYTHON"`
	Environment string `envconfig:"CRPIPE_ENVIRONMENT" default:"development"`

	// Diagnostics credentials, kept out of the tracked config file.
	S3AccessKey string `envconfig:"CRPIPE_S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"CRPIPE_S3_SECRET_KEY"`
}

// ValidateEnv loads .env in development and processes the environment.
func ValidateEnv() (*EnvConfig, error) {
	if isDev() {
		// Missing .env is fine; the environment itself may carry everything.
		_ = godotenv.Load()
	}

	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var errors []string

	if (cfg.S3AccessKey != "" && cfg.S3SecretKey == "") || (cfg.S3AccessKey == "" && cfg.S3SecretKey != "") {
		errors = append(errors, "  CRPIPE_S3_ACCESS_KEY and CRPIPE_S3_SECRET_KEY must be set together")
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return &cfg, nil
}

// MaskSecret renders a credential for log output without exposing it.
func MaskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func isDev() bool {
	var probe struct {
		Environment string `envconfig:"CRPIPE_ENVIRONMENT" default:"development"`
	}
	if err := envconfig.Process("", &probe); err != nil {
		return false
	}
	return probe.Environment == "development"
}
