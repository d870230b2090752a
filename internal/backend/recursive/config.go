package recursive

import (
	"fmt"

	"github.com/spf13/viper"
)

// systemDefault is the configuration token meaning "use the OS default
// path" for hosts/resolv, per the resolver_unbound.conf [general] section.
const systemDefault = "system"

// Config is the backend's load-time/reload-time configuration, parsed from
// a resolver_unbound.conf-style ini file with a single [general] section.
type Config struct {
	Hosts       string
	Resolv      string
	Nameservers []string
	Debug       int
	TAFile      string
}

// LoadConfig reads and validates a resolver_unbound.conf file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	v.SetDefault("general.hosts", systemDefault)
	v.SetDefault("general.resolv", systemDefault)
	v.SetDefault("general.debug", 0)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("recursive: reading config %s: %w", path, err)
	}

	cfg := Config{
		Hosts:  v.GetString("general.hosts"),
		Resolv: v.GetString("general.resolv"),
		Debug:  v.GetInt("general.debug"),
		TAFile: v.GetString("general.ta_file"),
	}

	switch ns := v.Get("general.nameserver").(type) {
	case string:
		if ns != "" {
			cfg.Nameservers = []string{ns}
		}
	case []any:
		for _, v := range ns {
			if s, ok := v.(string); ok && s != "" {
				cfg.Nameservers = append(cfg.Nameservers, s)
			}
		}
	}

	if cfg.Debug < 0 {
		return Config{}, fmt.Errorf("recursive: debug must be non-negative, got %d", cfg.Debug)
	}
	return cfg, nil
}

// HostsPath returns the hosts file path, or "" for the OS default.
func (c Config) HostsPath() string {
	if c.Hosts == systemDefault {
		return ""
	}
	return c.Hosts
}

// ResolvPath returns the resolv.conf path, or "" for the OS default.
func (c Config) ResolvPath() string {
	if c.Resolv == systemDefault {
		return ""
	}
	return c.Resolv
}
