// Package config provides configuration loading for the resolver daemon
// using Viper. Configuration is loaded from YAML files with automatic
// environment variable binding.
//
// Environment variables use the RESOLVERD_ prefix and underscore-separated
// keys:
//   - RESOLVERD_RECURSIVE_PRIORITY -> recursive.priority
//   - RESOLVERD_ADMIN_PORT -> admin.port
//   - RESOLVERD_SIP_MAX_ADDRESSES -> sip.max_addresses
package config

import (
	"os"
	"strings"
)

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string            `yaml:"level"             mapstructure:"level"             json:"level"`
	Structured       bool              `yaml:"structured"        mapstructure:"structured"        json:"structured"`
	StructuredFormat string            `yaml:"structured_format" mapstructure:"structured_format" json:"structured_format"`
	IncludePID       bool              `yaml:"include_pid"       mapstructure:"include_pid"       json:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields"      mapstructure:"extra_fields"      json:"extra_fields,omitempty"`
}

// RecursiveConfig configures the registered recursive-stub resolve.Resolver.
type RecursiveConfig struct {
	Name       string `yaml:"name"        mapstructure:"name"        json:"name"`
	Priority   int    `yaml:"priority"    mapstructure:"priority"    json:"priority"`
	ConfigPath string `yaml:"config_path" mapstructure:"config_path" json:"config_path"`
}

// SIPConfig configures the RFC 3263 target resolver.
type SIPConfig struct {
	MaxAddresses int `yaml:"max_addresses" mapstructure:"max_addresses" json:"max_addresses"`
}

// AdminAPIConfig controls the read-only introspection HTTP surface.
type AdminAPIConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Host    string `yaml:"host"    mapstructure:"host"    json:"host"`
	Port    int    `yaml:"port"    mapstructure:"port"    json:"port"`
}

// QueryLogConfig controls the diagnostic query audit trail.
type QueryLogConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	DBPath  string `yaml:"db_path" mapstructure:"db_path" json:"db_path"`
}

// CacheConfig controls the in-process result cache that sits in front of
// the registered resolve.Resolver backends.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"     mapstructure:"enabled"     json:"enabled"`
	Priority   int  `yaml:"priority"    mapstructure:"priority"    json:"priority"`
	MaxEntries int  `yaml:"max_entries" mapstructure:"max_entries" json:"max_entries"`
}

// Config is the root configuration structure.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"   mapstructure:"logging"`
	Recursive RecursiveConfig `yaml:"recursive" mapstructure:"recursive"`
	SIP       SIPConfig       `yaml:"sip"       mapstructure:"sip"`
	Admin     AdminAPIConfig  `yaml:"admin"     mapstructure:"admin"`
	QueryLog  QueryLogConfig  `yaml:"querylog"  mapstructure:"querylog"`
	Cache     CacheConfig     `yaml:"cache"     mapstructure:"cache"`
}

// ResolveConfigPath determines the config file path from flag or environment.
func ResolveConfigPath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	if v := strings.TrimSpace(os.Getenv("RESOLVERD_CONFIG")); v != "" {
		return v
	}
	return ""
}

// Load loads configuration from a YAML file with environment variable
// overrides. This is the main entry point for loading configuration.
//
// Configuration priority (highest to lowest):
//  1. Environment variables (RESOLVERD_*)
//  2. Config file values
//  3. Default values
func Load(path string) (*Config, error) {
	return loadFromSource(path)
}
