package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/tidyd/internal/security"
)

// CronParser parses report schedules. Shared with the daemon scheduler.
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config represents the application configuration
type Config struct {
	Root           string             `yaml:"root" toml:"root"`
	IgnorePatterns []string           `yaml:"ignore_patterns" toml:"ignore_patterns"`
	IgnoreHidden   bool               `yaml:"ignore_hidden" toml:"ignore_hidden"`
	Stability      StabilityConfig    `yaml:"stability" toml:"stability"`
	Daemon         DaemonConfig       `yaml:"daemon" toml:"daemon"`
	Logging        LoggingConfig      `yaml:"logging" toml:"logging"`
	Journal        JournalConfig      `yaml:"journal" toml:"journal"`
	Report         ReportConfig       `yaml:"report" toml:"report"`
	Notifications  NotificationConfig `yaml:"notifications" toml:"notifications"`
}

// StabilityConfig controls how long a growing file is waited for
type StabilityConfig struct {
	MaxWait Duration `yaml:"max_wait" toml:"max_wait"` // 0 waits forever
}

// DaemonConfig holds daemon mode configuration
type DaemonConfig struct {
	PidFile      string   `yaml:"pid_file" toml:"pid_file"`
	LockFile     string   `yaml:"lock_file" toml:"lock_file"`
	DrainTimeout Duration `yaml:"drain_timeout" toml:"drain_timeout"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // console, json
	File   string `yaml:"file" toml:"file"`     // empty disables the log file
}

// JournalConfig holds the move history database settings
type JournalConfig struct {
	Enabled       bool   `yaml:"enabled" toml:"enabled"`
	Path          string `yaml:"path" toml:"path"`
	RetentionDays int    `yaml:"retention_days" toml:"retention_days"` // 0 keeps everything
}

// ReportConfig holds weekly report settings
type ReportConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Schedule string `yaml:"schedule" toml:"schedule"` // Cron expression
	Path     string `yaml:"path" toml:"path"`         // output directory
	Format   string `yaml:"format" toml:"format"`     // html, table, json, yaml
}

// NotificationConfig holds notification settings
type NotificationConfig struct {
	Enabled       bool          `yaml:"enabled" toml:"enabled"`
	Desktop       bool          `yaml:"desktop" toml:"desktop"`
	RatePerMinute float64       `yaml:"rate_per_minute" toml:"rate_per_minute"` // 0 disables limiting
	Burst         int           `yaml:"burst" toml:"burst"`
	Webhook       WebhookConfig `yaml:"webhook" toml:"webhook"`
	Ntfy          NtfyConfig    `yaml:"ntfy" toml:"ntfy"`
	Email         EmailConfig   `yaml:"email" toml:"email"`
}

// WebhookConfig holds webhook notification settings
type WebhookConfig struct {
	URL     string            `yaml:"url" toml:"url"`
	Method  string            `yaml:"method" toml:"method"`
	Headers map[string]string `yaml:"headers" toml:"headers"`
}

// NtfyConfig holds ntfy.sh notification settings
type NtfyConfig struct {
	URL     string   `yaml:"url" toml:"url"` // full topic URL
	Timeout Duration `yaml:"timeout" toml:"timeout"`
}

// EmailConfig holds email notification settings
type EmailConfig struct {
	SMTPHost string   `yaml:"smtp_host" toml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port" toml:"smtp_port"`
	Username string   `yaml:"username" toml:"username"`
	Password string   `yaml:"password" toml:"password"`
	From     string   `yaml:"from" toml:"from"`
	To       []string `yaml:"to" toml:"to"`
}

// Load loads configuration from a file. A missing file yields the defaults.
// Files ending in .toml are decoded as TOML, everything else as YAML.
func Load(configPath string) (*Config, error) {
	config := GetDefault()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(configPath) {
		err = toml.NewDecoder(bytes.NewReader(data)).Decode(config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(configPath) {
		data, err = toml.Marshal(config)
	} else {
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Mode 0600: the file may hold SMTP credentials
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// normalize expands ~ in every path field
func (c *Config) normalize() error {
	fields := []*string{
		&c.Root,
		&c.Daemon.PidFile,
		&c.Daemon.LockFile,
		&c.Logging.File,
		&c.Journal.Path,
		&c.Report.Path,
	}
	for _, field := range fields {
		expanded, err := ExpandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Root is optional; empty means the platform Downloads folder
	if c.Root != "" {
		if err := security.NewPathValidator().ValidateRoot(c.Root); err != nil {
			return fmt.Errorf("root: %w", err)
		}
	}

	for _, pattern := range c.IgnorePatterns {
		if err := security.ValidateGlobPattern(pattern); err != nil {
			return fmt.Errorf("invalid ignore pattern '%s': %w", pattern, err)
		}
	}

	if c.Stability.MaxWait < 0 {
		return fmt.Errorf("stability.max_wait must be >= 0")
	}
	if c.Daemon.DrainTimeout < 0 {
		return fmt.Errorf("daemon.drain_timeout must be >= 0")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.Logging.Format)
	}

	if c.Journal.RetentionDays < 0 {
		return fmt.Errorf("journal.retention_days must be >= 0")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}

	if c.Report.Enabled {
		if _, err := CronParser.Parse(c.Report.Schedule); err != nil {
			return fmt.Errorf("invalid report schedule '%s': %w", c.Report.Schedule, err)
		}
		if c.Report.Path == "" {
			return fmt.Errorf("report.path is required when reports are enabled")
		}
	}
	switch strings.ToLower(c.Report.Format) {
	case "html", "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown report format: %s", c.Report.Format)
	}

	return c.Notifications.validate()
}

func (n *NotificationConfig) validate() error {
	if n.RatePerMinute < 0 {
		return fmt.Errorf("notifications.rate_per_minute must be >= 0")
	}
	if n.Burst < 0 {
		return fmt.Errorf("notifications.burst must be >= 0")
	}

	for name, raw := range map[string]string{"webhook": n.Webhook.URL, "ntfy": n.Ntfy.URL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("notifications.%s.url must be an http(s) URL: %s", name, raw)
		}
	}
	if n.Ntfy.Timeout < 0 {
		return fmt.Errorf("notifications.ntfy.timeout must be >= 0")
	}

	if n.Email.SMTPHost != "" {
		if n.Email.SMTPPort <= 0 || n.Email.SMTPPort > 65535 {
			return fmt.Errorf("notifications.email.smtp_port out of range: %d", n.Email.SMTPPort)
		}
		if len(n.Email.To) == 0 {
			return fmt.Errorf("no email recipients configured")
		}
	}

	return nil
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(homeDir, ".config", "tidyd")
	return filepath.Join(configDir, "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(GetExampleConfig()), 0600); err != nil {
			return "", fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return configPath, nil
}
