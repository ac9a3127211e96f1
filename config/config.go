// Package config holds the TOML configuration for the postq queue triage
// tool. All settings have working defaults so the tool runs without a
// configuration file on a standard Postfix host.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Output string `toml:"output"` // Log output: "stderr", "stdout", "syslog", or file path
	Format string `toml:"format"` // Log format: "json" or "console"
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", "error"
}

// QueueConfig holds the external Postfix command lines and spool layout.
type QueueConfig struct {
	// Command and arguments used to list the queue. The command's own
	// header line and two trailing footer lines are stripped before the
	// output is parsed.
	ListCommand []string `toml:"list_command"`

	// Command and arguments used to dump a single queue file; the queue
	// id is appended as the last argument.
	CatCommand []string `toml:"cat_command"`

	// Command used for administrative operations. The operation flag and
	// "-" are appended, queue ids are written to its standard input.
	AdminCommand []string `toml:"admin_command"`

	// Postfix spool directory, used by the per-status scan strategy.
	SpoolPath string `toml:"spool_path"`

	// Queue status directories scanned under the spool path.
	Statuses []string `toml:"statuses"`
}

// Config is the top level configuration.
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Queue   QueueConfig   `toml:"queue"`
}

// NewDefaultConfig returns a configuration with standard Postfix defaults.
func NewDefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Output: "stderr",  // Default to stderr
			Format: "console", // Default to console format
			Level:  "info",    // Default to info level
		},
		Queue: QueueConfig{
			ListCommand:  []string{"/usr/sbin/postqueue", "-p"},
			CatCommand:   []string{"/usr/sbin/postcat", "-qv"},
			AdminCommand: []string{"/usr/sbin/postsuper"},
			SpoolPath:    "/var/spool/postfix",
			Statuses:     []string{"active", "deferred", "hold"},
		},
	}
}

// LoadConfigFromFile decodes a TOML configuration file over cfg. Settings
// absent from the file keep their current values.
func LoadConfigFromFile(configPath string, cfg *Config) error {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	if _, err := toml.Decode(string(content), cfg); err != nil {
		return fmt.Errorf("failed to parse configuration file '%s': %w", configPath, err)
	}

	return cfg.Validate()
}

// Validate checks that the configured external commands are usable.
func (c *Config) Validate() error {
	if len(c.Queue.ListCommand) == 0 {
		return fmt.Errorf("queue.list_command must not be empty")
	}
	if len(c.Queue.CatCommand) == 0 {
		return fmt.Errorf("queue.cat_command must not be empty")
	}
	if len(c.Queue.AdminCommand) == 0 {
		return fmt.Errorf("queue.admin_command must not be empty")
	}
	if c.Queue.SpoolPath == "" {
		return fmt.Errorf("queue.spool_path must not be empty")
	}
	for _, status := range c.Queue.Statuses {
		switch status {
		case "active", "deferred", "hold":
		default:
			return fmt.Errorf("queue.statuses contains unknown status '%s'", status)
		}
	}
	return nil
}
