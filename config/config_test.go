package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, []string{"/usr/sbin/postqueue", "-p"}, cfg.Queue.ListCommand)
	assert.Equal(t, []string{"/usr/sbin/postcat", "-qv"}, cfg.Queue.CatCommand)
	assert.Equal(t, []string{"/usr/sbin/postsuper"}, cfg.Queue.AdminCommand)
	assert.Equal(t, "/var/spool/postfix", cfg.Queue.SpoolPath)
	assert.Equal(t, []string{"active", "deferred", "hold"}, cfg.Queue.Statuses)
	assert.Equal(t, "stderr", cfg.Logging.Output)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	content := `
[logging]
level = "debug"

[queue]
spool_path = "/srv/postfix/spool"
statuses = ["deferred", "hold"]
`
	path := filepath.Join(t.TempDir(), "postq.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := NewDefaultConfig()
	require.NoError(t, LoadConfigFromFile(path, &cfg))

	// Overridden values
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/srv/postfix/spool", cfg.Queue.SpoolPath)
	assert.Equal(t, []string{"deferred", "hold"}, cfg.Queue.Statuses)

	// Defaults kept for settings absent from the file
	assert.Equal(t, []string{"/usr/sbin/postqueue", "-p"}, cfg.Queue.ListCommand)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadConfigFromFileMissing(t *testing.T) {
	cfg := NewDefaultConfig()
	err := LoadConfigFromFile(filepath.Join(t.TempDir(), "absent.toml"), &cfg)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty list command",
			mutate:  func(c *Config) { c.Queue.ListCommand = nil },
			wantErr: "list_command",
		},
		{
			name:    "empty cat command",
			mutate:  func(c *Config) { c.Queue.CatCommand = nil },
			wantErr: "cat_command",
		},
		{
			name:    "empty admin command",
			mutate:  func(c *Config) { c.Queue.AdminCommand = nil },
			wantErr: "admin_command",
		},
		{
			name:    "empty spool path",
			mutate:  func(c *Config) { c.Queue.SpoolPath = "" },
			wantErr: "spool_path",
		},
		{
			name:    "unknown status",
			mutate:  func(c *Config) { c.Queue.Statuses = []string{"active", "bounced"} },
			wantErr: "unknown status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
