package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sdejongh/duper/internal/platform"
	"github.com/sdejongh/duper/pkg/config"
	"github.com/sdejongh/duper/pkg/logging"
	"github.com/sdejongh/duper/pkg/models"
	"github.com/sdejongh/duper/pkg/pipeline"
	"github.com/sdejongh/duper/pkg/store"
)

// TargetFlags holds the flags shared by the scan and dedupe commands
type TargetFlags struct {
	Mode        string
	MinDirFiles int
	WorkDir     string
	Quarantine  string
	Bandwidth   string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

// validateTarget checks that the target directory exists
func validateTarget(dir string) error {
	if err := platform.ValidatePath(dir); err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("target path does not exist: %s", dir)
	} else if err != nil {
		return fmt.Errorf("failed to access target path: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("target path is not a directory: %s", dir)
	}

	return nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config, flags *TargetFlags) error {
	if flags.Mode != "" {
		cfg.Scan.Mode = models.DirectoryMode(flags.Mode)
	}

	if flags.MinDirFiles >= 0 {
		cfg.Scan.MinDirFiles = flags.MinDirFiles
	}

	if flags.WorkDir != "" {
		cfg.Scan.WorkDir = flags.WorkDir
	}

	if flags.Quarantine != "" {
		cfg.Quarantine.Directory = flags.Quarantine
	}

	if flags.Bandwidth != "" {
		limit, err := parseBandwidth(flags.Bandwidth)
		if err != nil {
			return err
		}
		cfg.Performance.BandwidthLimit = limit
	}

	if flags.LogFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.File = flags.LogFile
	}
	if flags.LogFormat != "" {
		cfg.Logging.Format = flags.LogFormat
	}
	if flags.LogLevel != "" {
		cfg.Logging.Level = flags.LogLevel
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	// Enable progress in verbose mode
	if globalFlags.Verbose {
		cfg.Output.Progress = true
	}

	return cfg.Validate()
}

// parseBandwidth parses a bandwidth limit like "500K", "10M" or "1G"
// into bytes per second
func parseBandwidth(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0, nil
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "G")
	}

	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid bandwidth limit: %s", s)
	}

	return value * multiplier, nil
}

// createLogger creates a logger based on configuration
func createLogger(cfg *config.Config) (logging.Logger, error) {
	if !cfg.Logging.Enabled || cfg.Logging.File == "" {
		return logging.NewNullLogger(), nil
	}

	var format logging.Format
	switch cfg.Logging.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	loggerConfig := logging.FileLoggerConfig{
		Path:       cfg.Logging.File,
		Format:     format,
		Level:      logging.ParseLevel(cfg.Logging.Level),
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	}

	return logging.NewFileLogger(loggerConfig)
}

// environment bundles the per-command runtime: config, store, logger
// and the pipeline engine wired against them
type environment struct {
	cfg    *config.Config
	store  *store.Store
	logger logging.Logger
	engine *pipeline.Engine
}

// newEnvironment bootstraps the working directory, opens the database
// and wires the engine
func newEnvironment(cfg *config.Config) (*environment, error) {
	quarantine := cfg.Quarantine.Directory
	if quarantine == "" {
		quarantine = platform.QuarantinePath(cfg.Scan.WorkDir)
	}

	if err := platform.EnsureWorkDir(cfg.Scan.WorkDir, quarantine); err != nil {
		return nil, err
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	st, err := store.Open(platform.DatabasePath(cfg.Scan.WorkDir))
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	engine := pipeline.New(st, cfg, quarantine, Version, logger)

	// Best effort; the settings table is display-only
	engine.MirrorSettings()

	return &environment{
		cfg:    cfg,
		store:  st,
		logger: logger,
		engine: engine,
	}, nil
}

// Close releases the environment resources
func (e *environment) Close() {
	e.store.Close()
	e.logger.Close()
}
