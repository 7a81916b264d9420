// Package config loads crpipe's file configuration and environment
// settings. The file layer (viper) carries site data: where the tool
// scripts live, per-tool overrides for script paths and suffixes, lock and
// diagnostics backends. The env layer (envconfig) carries machine-local
// settings like the interpreter path.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/astrokit/crpipe/pkg/tool"
)

const (
	EnvPrefix  = "CRPIPE"
	ConfigName = "crpipe"
	ConfigRoot = ".crpipe"
)

// ToolOverride adjusts one built-in tool from the config file. Zero fields
// leave the built-in value in place.
type ToolOverride struct {
	Script       string `mapstructure:"script"`
	OutputSuffix string `mapstructure:"output_suffix"`
	MaskSuffix   string `mapstructure:"mask_suffix"`
	TimeoutMs    int64  `mapstructure:"timeout_ms"`
}

// LockConfig selects the target-lock backend.
type LockConfig struct {
	Backend  string `mapstructure:"backend"` // "memory" (default) or "valkey"
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DiagnosticsConfig points the pipeline at an optional S3-compatible
// archive for job records and captured tool output.
type DiagnosticsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type Config struct {
	ToolsDir    string                  `mapstructure:"tools_dir"`
	TempDir     string                  `mapstructure:"temp_dir"` // empty = system temp
	PresetsDir  string                  `mapstructure:"presets_dir"`
	Interpreter string                  `mapstructure:"interpreter"`
	TimeoutMs   int64                   `mapstructure:"timeout_ms"` // default job budget
	Lock        LockConfig              `mapstructure:"lock"`
	Diagnostics DiagnosticsConfig       `mapstructure:"diagnostics"`
	Tools       map[string]ToolOverride `mapstructure:"tools"`

	v *viper.Viper // instance-specific viper
}

// LoadConfig creates a new Config instance with its own viper
// This is the only way to load config (no global state)
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else {
		// Load project config (TRACKED) - crpipe.yaml in current directory
		for _, name := range []string{"crpipe.yaml", "crpipe.yml", ".crpipe.yaml"} {
			if _, err := os.Stat(name); err == nil {
				v.SetConfigFile(name)
				if err := v.ReadInConfig(); err == nil {
					break
				}
			}
		}

		// Merge local overrides (UNTRACKED) - .crpipe/config.yaml
		localConfigPath := filepath.Join(ConfigRoot, "config.yaml")
		if _, err := os.Stat(localConfigPath); err == nil {
			v.SetConfigFile(localConfigPath)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("merging local config: %w", err)
			}
		}
	}

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.v = v
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	if !v.IsSet("presets_dir") {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		v.SetDefault("presets_dir", filepath.Join(home, ConfigRoot, "presets"))
	}
	v.SetDefault("lock.backend", "memory")
	v.SetDefault("diagnostics.region", "us-east-1")
}

// ApplyToolOverrides rewrites registered tools with the config file's
// per-tool tables. Unknown tool names are an error: a typo silently
// ignored would run the tool with the wrong script or suffix.
func (c *Config) ApplyToolOverrides(reg *tool.Registry) error {
	for name, ov := range c.Tools {
		t, err := reg.Lookup(name)
		if err != nil {
			return fmt.Errorf("tool override: %w", err)
		}
		if ov.Script != "" {
			t.Script = ov.Script
		}
		if ov.OutputSuffix != "" {
			t.OutputSuffix = ov.OutputSuffix
		}
		if ov.MaskSuffix != "" {
			t.MaskSuffix = ov.MaskSuffix
		}
		if ov.TimeoutMs > 0 {
			t.Timeout = ov.TimeoutMs
		}
	}
	return nil
}

// Get returns a value from the underlying viper instance
// Useful for CLI flag binding and dynamic config access
func (c *Config) Get(key string) interface{} {
	if c.v == nil {
		return nil
	}
	return c.v.Get(key)
}

// GetString returns a string value from the underlying viper instance
func (c *Config) GetString(key string) string {
	if c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

// Viper returns the underlying viper instance
func (c *Config) Viper() *viper.Viper {
	return c.v
}

// ConfigFileUsed returns the config file that was used (if any)
func (c *Config) ConfigFileUsed() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}
