// Package config provides configuration loading and validation for the
// resolver daemon.
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Command-line flags (not handled here, see cmd/resolverd/main.go)
//  2. Environment variables (RESOLVERD_* prefix)
//  3. YAML config file (if specified with --config)
//  4. Hardcoded defaults
//
// All configuration is validated during Load() to ensure correctness early.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// initConfig sets up the config loader with defaults, env binding, and config file.
func initConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("RESOLVERD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.structured_format", "json")
	v.SetDefault("logging.include_pid", false)
	v.SetDefault("logging.extra_fields", map[string]string{})

	v.SetDefault("recursive.name", "recursive")
	v.SetDefault("recursive.priority", 10)
	v.SetDefault("recursive.config_path", "/etc/resolverd/resolver_unbound.conf")

	v.SetDefault("sip.max_addresses", 12)

	// Default to disabled and bound to localhost for safety.
	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.host", "127.0.0.1")
	v.SetDefault("admin.port", 8080)

	v.SetDefault("querylog.enabled", false)
	v.SetDefault("querylog.db_path", "/var/lib/resolverd/querylog.db")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.priority", 1)
	v.SetDefault("cache.max_entries", 10000)
}

// loadFromSource loads configuration from file and environment.
func loadFromSource(configPath string) (*Config, error) {
	v, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	loadLoggingConfig(v, cfg)
	loadRecursiveConfig(v, cfg)
	loadSIPConfig(v, cfg)
	loadAdminConfig(v, cfg)
	loadQueryLogConfig(v, cfg)
	loadCacheConfig(v, cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadLoggingConfig(v *viper.Viper, cfg *Config) {
	cfg.Logging.Level = v.GetString("logging.level")
	cfg.Logging.Structured = v.GetBool("logging.structured")
	cfg.Logging.StructuredFormat = v.GetString("logging.structured_format")
	cfg.Logging.IncludePID = v.GetBool("logging.include_pid")
	cfg.Logging.ExtraFields = v.GetStringMapString("logging.extra_fields")
}

func loadRecursiveConfig(v *viper.Viper, cfg *Config) {
	cfg.Recursive.Name = v.GetString("recursive.name")
	cfg.Recursive.Priority = v.GetInt("recursive.priority")
	cfg.Recursive.ConfigPath = v.GetString("recursive.config_path")
}

func loadSIPConfig(v *viper.Viper, cfg *Config) {
	cfg.SIP.MaxAddresses = v.GetInt("sip.max_addresses")
}

func loadAdminConfig(v *viper.Viper, cfg *Config) {
	cfg.Admin.Enabled = v.GetBool("admin.enabled")
	cfg.Admin.Host = v.GetString("admin.host")
	cfg.Admin.Port = v.GetInt("admin.port")
}

func loadQueryLogConfig(v *viper.Viper, cfg *Config) {
	cfg.QueryLog.Enabled = v.GetBool("querylog.enabled")
	cfg.QueryLog.DBPath = v.GetString("querylog.db_path")
}

func loadCacheConfig(v *viper.Viper, cfg *Config) {
	cfg.Cache.Enabled = v.GetBool("cache.enabled")
	cfg.Cache.Priority = v.GetInt("cache.priority")
	cfg.Cache.MaxEntries = v.GetInt("cache.max_entries")
}

func validateConfig(cfg *Config) error {
	if cfg.Recursive.Name == "" {
		return fmt.Errorf("recursive.name must not be empty")
	}
	if cfg.SIP.MaxAddresses <= 0 {
		return fmt.Errorf("sip.max_addresses must be positive, got %d", cfg.SIP.MaxAddresses)
	}
	if cfg.Admin.Enabled && cfg.Admin.Port <= 0 {
		return fmt.Errorf("admin.port must be positive when admin.enabled is true")
	}
	if cfg.Cache.Enabled && cfg.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive when cache.enabled is true")
	}
	return nil
}
