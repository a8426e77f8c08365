package config

import (
	"path/filepath"
	"time"
)

// GetDefault returns the default configuration
func GetDefault() *Config {
	state := StateDir()

	return &Config{
		Root: "", // resolved to the platform Downloads folder at startup
		IgnorePatterns: []string{
			".DS_Store",
			"Thumbs.db",
			"desktop.ini",
		},
		IgnoreHidden: true,
		Stability: StabilityConfig{
			MaxWait: Duration(30 * time.Minute),
		},
		Daemon: DaemonConfig{
			PidFile:      filepath.Join(state, "tidyd.pid"),
			LockFile:     filepath.Join(state, "tidyd.lock"),
			DrainTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   filepath.Join(state, "tidyd.log"),
		},
		Journal: JournalConfig{
			Enabled:       true,
			Path:          filepath.Join(state, "journal.db"),
			RetentionDays: 90,
		},
		Report: ReportConfig{
			Enabled:  true,
			Schedule: "0 9 * * 1", // Mondays at 09:00
			Path:     filepath.Join(state, "reports"),
			Format:   "html",
		},
		Notifications: NotificationConfig{
			Enabled:       true,
			Desktop:       true,
			RatePerMinute: 30,
			Burst:         5,
			Webhook: WebhookConfig{
				Method:  "POST",
				Headers: map[string]string{},
			},
			Ntfy: NtfyConfig{
				Timeout: Duration(10 * time.Second),
			},
			Email: EmailConfig{
				SMTPPort: 587,
				To:       []string{},
			},
		},
	}
}

// GetExampleConfig returns an example configuration with comments
func GetExampleConfig() string {
	return `# tidyd configuration file
# Location: ~/.config/tidyd/config.yaml

# Folder to organize. Leave empty to use the system Downloads folder.
root: ""

# File names that are never moved (glob patterns matched against the base name).
# In-progress downloads (.tmp, .part, .crdownload, .download, .partial) are always skipped.
ignore_patterns:
  - ".DS_Store"
  - "Thumbs.db"
  - "desktop.ini"

# Skip dot files and everything inside dot directories
ignore_hidden: true

stability:
  # Give up on a file that is still growing after this long (0 waits forever)
  max_wait: 30m

daemon:
  pid_file: ~/.local/state/tidyd/tidyd.pid
  lock_file: ~/.local/state/tidyd/tidyd.lock
  # Time an in-flight file gets to finish moving on shutdown
  drain_timeout: 10s

logging:
  level: info        # debug, info, warn, error
  format: console    # console, json
  file: ~/.local/state/tidyd/tidyd.log

# Move history, used by "tidyd history" and the weekly report
journal:
  enabled: true
  path: ~/.local/state/tidyd/journal.db
  retention_days: 90

# Weekly summary of the organized folder
report:
  enabled: true
  schedule: "0 9 * * 1"   # cron expression, Mondays at 09:00
  path: ~/.local/state/tidyd/reports
  format: html            # html, table, json, yaml

notifications:
  enabled: true
  desktop: true           # notify-send on Linux, osascript on macOS
  rate_per_minute: 30     # 0 disables rate limiting
  burst: 5

  webhook:
    url: ""
    method: POST
    headers: {}

  ntfy:
    url: ""               # e.g. https://ntfy.sh/my-downloads
    timeout: 10s

  email:
    smtp_host: ""
    smtp_port: 587
    username: ""
    password: ""
    from: ""
    to: []
`
}
