package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/fenilsonani/tidyd/internal/config"
	"github.com/fenilsonani/tidyd/internal/daemon"
	"github.com/fenilsonani/tidyd/internal/logging"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"

	configPath  string
	testConfig  bool
	showVersion bool
	verbose     bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&testConfig, "test-config", false, "Test configuration and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.BoolVar(&verbose, "verbose", false, "Log at debug level")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("tidyd daemon v%s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if testConfig {
		root, err := daemon.ResolveRoot(cfg, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration is valid")
		fmt.Printf("Root: %s\n", root)
		fmt.Printf("Journal: %v (%s)\n", cfg.Journal.Enabled, cfg.Journal.Path)
		fmt.Printf("Weekly report: %v (%s, %s)\n", cfg.Report.Enabled, cfg.Report.Schedule, cfg.Report.Format)
		fmt.Printf("Notifications: %v\n", cfg.Notifications.Enabled)
		os.Exit(0)
	}

	logger, err := logging.NewFromConfig(cfg, verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	d, err := daemon.New(cfg, logger.Logger)
	if err != nil {
		logger.Error("daemon setup failed", "error", err)
		os.Exit(1)
	}

	if err := d.Start(); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			fmt.Fprintln(os.Stderr, "Daemon is already running")
		} else {
			logger.Error("daemon stopped", "error", err)
		}
		logger.Close()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		path, err := config.ExpandPath(configPath)
		if err != nil {
			return nil, err
		}
		return config.Load(path)
	}

	// System-wide config wins over the per-user one
	if _, err := os.Stat("/etc/tidyd/config.yaml"); err == nil {
		return config.Load("/etc/tidyd/config.yaml")
	}

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}
	return config.Load(cfgPath)
}
