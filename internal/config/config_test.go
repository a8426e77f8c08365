package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// GetDefault Tests
// =============================================================================

func TestGetDefault(t *testing.T) {
	cfg := GetDefault()

	if cfg == nil {
		t.Fatal("GetDefault returned nil")
	}

	if cfg.Root != "" {
		t.Errorf("expected empty root by default, got %q", cfg.Root)
	}
	if !cfg.IgnoreHidden {
		t.Error("expected hidden files to be ignored by default")
	}
	if cfg.Stability.MaxWait.Std() != 30*time.Minute {
		t.Errorf("expected max_wait 30m, got %s", cfg.Stability.MaxWait.Std())
	}
	if cfg.Daemon.DrainTimeout.Std() != 10*time.Second {
		t.Errorf("expected drain_timeout 10s, got %s", cfg.Daemon.DrainTimeout.Std())
	}
	if cfg.Report.Schedule != "0 9 * * 1" {
		t.Errorf("expected weekly Monday schedule, got %q", cfg.Report.Schedule)
	}
	if !cfg.Journal.Enabled {
		t.Error("expected journal to be enabled by default")
	}
}

func TestGetDefaultPathsUseStateDir(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/var/lib/state-test")
	cfg := GetDefault()

	want := filepath.Join("/var/lib/state-test", "tidyd")
	for name, path := range map[string]string{
		"pid_file":  cfg.Daemon.PidFile,
		"lock_file": cfg.Daemon.LockFile,
		"log file":  cfg.Logging.File,
		"journal":   cfg.Journal.Path,
		"reports":   cfg.Report.Path,
	} {
		if filepath.Dir(path) != want {
			t.Errorf("%s = %s, want it under %s", name, path, want)
		}
	}
}

func TestExampleConfigParses(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(GetExampleConfig()), 0644); err != nil {
		t.Fatalf("failed to write example config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("example config should load: %v", err)
	}
	if cfg.Notifications.Ntfy.Timeout.Std() != 10*time.Second {
		t.Errorf("expected ntfy timeout 10s, got %s", cfg.Notifications.Ntfy.Timeout.Std())
	}
	if strings.HasPrefix(cfg.Journal.Path, "~") {
		t.Errorf("expected ~ to be expanded, got %s", cfg.Journal.Path)
	}
}

// =============================================================================
// Load Tests
// =============================================================================

func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load should not error for non-existent file: %v", err)
	}

	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.Report.Format != "html" {
		t.Errorf("expected default report format, got %q", cfg.Report.Format)
	}
}

func TestLoadValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "Downloads")
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
root: ` + root + `
ignore_patterns:
  - "*.bak"
ignore_hidden: false
stability:
  max_wait: 5m
daemon:
  drain_timeout: 3s
logging:
  level: debug
  format: json
report:
  schedule: "@weekly"
  format: json
notifications:
  desktop: false
  ntfy:
    url: https://ntfy.sh/downloads
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Root != root {
		t.Errorf("expected root %s, got %s", root, cfg.Root)
	}
	if len(cfg.IgnorePatterns) != 1 || cfg.IgnorePatterns[0] != "*.bak" {
		t.Errorf("expected ignore patterns to be replaced, got %v", cfg.IgnorePatterns)
	}
	if cfg.IgnoreHidden {
		t.Error("expected IgnoreHidden to be false")
	}
	if cfg.Stability.MaxWait.Std() != 5*time.Minute {
		t.Errorf("expected max_wait 5m, got %s", cfg.Stability.MaxWait.Std())
	}
	if cfg.Daemon.DrainTimeout.Std() != 3*time.Second {
		t.Errorf("expected drain_timeout 3s, got %s", cfg.Daemon.DrainTimeout.Std())
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json logging, got %s", cfg.Logging.Format)
	}
	if cfg.Notifications.Desktop {
		t.Error("expected desktop notifications to be disabled")
	}
	if cfg.Notifications.Ntfy.URL != "https://ntfy.sh/downloads" {
		t.Errorf("unexpected ntfy url %s", cfg.Notifications.Ntfy.URL)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %s", cfg.Logging.Level)
	}
	// Unset fields keep their defaults
	if cfg.Logging.Format != "console" {
		t.Errorf("expected default format console, got %s", cfg.Logging.Format)
	}
	if cfg.Stability.MaxWait.Std() != 30*time.Minute {
		t.Errorf("expected default max_wait, got %s", cfg.Stability.MaxWait.Std())
	}
}

func TestLoadTOMLConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
ignore_hidden = false

[stability]
max_wait = "90s"

[journal]
retention_days = 7

[notifications]
rate_per_minute = 6.0

[notifications.webhook]
url = "https://hooks.example.com/dl"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Stability.MaxWait.Std() != 90*time.Second {
		t.Errorf("expected max_wait 90s, got %s", cfg.Stability.MaxWait.Std())
	}
	if cfg.Journal.RetentionDays != 7 {
		t.Errorf("expected retention 7, got %d", cfg.Journal.RetentionDays)
	}
	if cfg.Notifications.RatePerMinute != 6 {
		t.Errorf("expected rate 6, got %v", cfg.Notifications.RatePerMinute)
	}
	if cfg.Notifications.Webhook.Method != "POST" {
		t.Errorf("expected default webhook method kept, got %q", cfg.Notifications.Webhook.Method)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("root: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("stability:\n  max_wait: soon\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadProtectedRoot(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("root: /etc\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for protected root")
	}
}

func TestLoadExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configPath := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(configPath, []byte("root: ~/Downloads\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Root != filepath.Join(home, "Downloads") {
		t.Errorf("expected expanded root, got %s", cfg.Root)
	}
}

// =============================================================================
// Save Tests
// =============================================================================

func TestSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := GetDefault()
	cfg.Stability.MaxWait = Duration(45 * time.Second)
	cfg.Notifications.Email.To = []string{"me@example.com"}

	if err := Save(cfg, configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
	}

	loadedCfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loadedCfg.Stability.MaxWait.Std() != 45*time.Second {
		t.Errorf("expected max_wait 45s after save/load, got %s", loadedCfg.Stability.MaxWait.Std())
	}
	if len(loadedCfg.Notifications.Email.To) != 1 {
		t.Errorf("expected one recipient after save/load, got %v", loadedCfg.Notifications.Email.To)
	}
}

func TestSaveTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	cfg := GetDefault()
	cfg.Report.Format = "yaml"
	if err := Save(cfg, configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	if !strings.Contains(string(data), "[report]") {
		t.Errorf("expected TOML tables in output:\n%s", data)
	}

	loadedCfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load saved TOML config: %v", err)
	}
	if loadedCfg.Report.Format != "yaml" {
		t.Errorf("expected report format yaml, got %s", loadedCfg.Report.Format)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "deep", "nested", "dir", "config.yaml")

	if err := Save(GetDefault(), configPath); err != nil {
		t.Fatalf("Save failed to create nested directories: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created in nested directory")
	}
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestValidateValidConfig(t *testing.T) {
	cfg := GetDefault()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative root", func(c *Config) { c.Root = "Downloads" }},
		{"filesystem root", func(c *Config) { c.Root = "/" }},
		{"bad ignore pattern", func(c *Config) { c.IgnorePatterns = []string{"[abc"} }},
		{"path ignore pattern", func(c *Config) { c.IgnorePatterns = []string{"../x"} }},
		{"negative max wait", func(c *Config) { c.Stability.MaxWait = Duration(-time.Second) }},
		{"negative drain timeout", func(c *Config) { c.Daemon.DrainTimeout = Duration(-time.Second) }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"negative retention", func(c *Config) { c.Journal.RetentionDays = -1 }},
		{"journal without path", func(c *Config) { c.Journal.Path = "" }},
		{"bad cron", func(c *Config) { c.Report.Schedule = "every monday" }},
		{"unknown report format", func(c *Config) { c.Report.Format = "pdf" }},
		{"negative rate", func(c *Config) { c.Notifications.RatePerMinute = -1 }},
		{"negative burst", func(c *Config) { c.Notifications.Burst = -2 }},
		{"webhook not http", func(c *Config) { c.Notifications.Webhook.URL = "ftp://example.com" }},
		{"ntfy without host", func(c *Config) { c.Notifications.Ntfy.URL = "https://" }},
		{"email without recipients", func(c *Config) { c.Notifications.Email.SMTPHost = "smtp.example.com" }},
		{"email bad port", func(c *Config) {
			c.Notifications.Email.SMTPHost = "smtp.example.com"
			c.Notifications.Email.To = []string{"me@example.com"}
			c.Notifications.Email.SMTPPort = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefault()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateDisabledReportSkipsSchedule(t *testing.T) {
	cfg := GetDefault()
	cfg.Report.Enabled = false
	cfg.Report.Schedule = "not a schedule"

	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled report should not validate its schedule: %v", err)
	}
}

// =============================================================================
// Path Tests
// =============================================================================

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}

	if !strings.HasSuffix(path, filepath.Join(".config", "tidyd", "config.yaml")) {
		t.Errorf("unexpected config path: %s", path)
	}
}

func TestEnsureConfigExists(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := EnsureConfigExists()
	if err != nil {
		t.Fatalf("EnsureConfigExists failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config was not written: %v", err)
	}
	if !strings.Contains(string(data), "ignore_patterns") {
		t.Error("expected the example config to be written")
	}

	// Second call leaves the existing file alone
	if err := os.WriteFile(path, []byte("root: \"\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := EnsureConfigExists(); err != nil {
		t.Fatalf("second EnsureConfigExists failed: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "root: \"\"\n" {
		t.Error("existing config was overwritten")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/Downloads", filepath.Join(home, "Downloads")},
		{"/abs/path", "/abs/path"},
		{"~other/x", "~other/x"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		if err != nil {
			t.Errorf("ExpandPath(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1h30m")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if d.Std() != 90*time.Minute {
		t.Errorf("expected 90m, got %s", d.Std())
	}

	if err := d.UnmarshalText([]byte("0")); err != nil || d != 0 {
		t.Errorf("expected bare 0 to parse as zero, got %s (%v)", d.Std(), err)
	}

	text, _ := Duration(10 * time.Second).MarshalText()
	if string(text) != "10s" {
		t.Errorf("expected 10s, got %s", text)
	}
}
