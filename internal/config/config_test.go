package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigPath(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		envValue string
		want     string
	}{
		{"flag takes precedence", "/path/from/flag", "/path/from/env", "/path/from/flag"},
		{"env when no flag", "", "/path/from/env", "/path/from/env"},
		{"empty when neither", "", "", ""},
		{"whitespace flag", "  ", "/path/from/env", "/path/from/env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RESOLVERD_CONFIG", tt.envValue)
			got := ResolveConfigPath(tt.flag)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "recursive", cfg.Recursive.Name)
	assert.Equal(t, 10, cfg.Recursive.Priority)
	assert.Equal(t, 12, cfg.SIP.MaxAddresses)
	assert.False(t, cfg.Admin.Enabled)
	assert.Equal(t, "127.0.0.1", cfg.Admin.Host)
	assert.False(t, cfg.QueryLog.Enabled)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 1, cfg.Cache.Priority)
	assert.Equal(t, 10000, cfg.Cache.MaxEntries)
}

func TestLoadFromFile(t *testing.T) {
	content := `
recursive:
  name: "recursive-stub"
  priority: 5
  config_path: "/etc/resolverd/resolver_unbound.conf"

sip:
  max_addresses: 6

admin:
  enabled: true
  host: "0.0.0.0"
  port: 9090

logging:
  level: "DEBUG"
  structured: true
  structured_format: "keyvalue"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "recursive-stub", cfg.Recursive.Name)
	assert.Equal(t, 5, cfg.Recursive.Priority)
	assert.Equal(t, 6, cfg.SIP.MaxAddresses)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, "0.0.0.0", cfg.Admin.Host)
	assert.Equal(t, 9090, cfg.Admin.Port)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Structured)
	assert.Equal(t, "keyvalue", cfg.Logging.StructuredFormat)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recursive:\n  priority: [invalid"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsEmptyRecursiveName(t *testing.T) {
	content := "recursive:\n  name: \"\"\n"
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsNonPositiveMaxAddresses(t *testing.T) {
	content := "sip:\n  max_addresses: 0\n"
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsZeroMaxEntriesWhenCacheEnabled(t *testing.T) {
	content := "cache:\n  enabled: true\n  max_entries: 0\n"
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RESOLVERD_RECURSIVE_PRIORITY", "3")
	t.Setenv("RESOLVERD_SIP_MAX_ADDRESSES", "4")
	t.Setenv("RESOLVERD_ADMIN_ENABLED", "true")
	t.Setenv("RESOLVERD_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Recursive.Priority)
	assert.Equal(t, 4, cfg.SIP.MaxAddresses)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}
