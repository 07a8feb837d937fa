package config

import (
	"strings"

	"github.com/sdejongh/duper/pkg/models"
)

// Config represents the application configuration.
// It is an explicit value threaded into the scanner and relocator;
// there is no ambient configuration state.
type Config struct {
	Scan        ScanConfig        `yaml:"scan"`
	Quarantine  QuarantineConfig  `yaml:"quarantine"`
	Ignore      IgnoreConfig      `yaml:"ignore"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ScanConfig holds scanner settings
type ScanConfig struct {
	// Mode selects flat or hierarchical traversal
	Mode models.DirectoryMode `yaml:"mode"`

	// MinDirFiles is the recursion threshold in hierarchical mode:
	// a non-root directory is scanned only when it holds more than
	// this many direct files. The root itself needs at least one.
	// Inherited heuristic; the asymmetry is deliberate.
	MinDirFiles int `yaml:"min_dir_files"`

	// WorkDir holds the database and the default quarantine area
	WorkDir string `yaml:"work_dir"`
}

// QuarantineConfig holds relocation settings
type QuarantineConfig struct {
	// Directory overrides the default quarantine location
	// (<work_dir>/quarantine when empty)
	Directory string `yaml:"directory"`
}

// IgnoreConfig toggles the four ignore-by-extension categories.
// Each category is independent; Extra adds free-form extensions.
type IgnoreConfig struct {
	Archives  bool     `yaml:"archives"`
	Images    bool     `yaml:"images"`
	Documents bool     `yaml:"documents"`
	Saves     bool     `yaml:"saves"`
	Extra     []string `yaml:"extra"`
}

// PerformanceConfig holds hashing settings
type PerformanceConfig struct {
	// BufferSize is the hash chunk size in bytes
	BufferSize int `yaml:"buffer_size"`

	// BandwidthLimit caps hashing read speed in bytes per second
	// (0 = unlimited)
	BandwidthLimit int64 `yaml:"bandwidth_limit"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Progress bool `yaml:"progress"` // Show progress bar during scans
	Quiet    bool `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
	Level   string `yaml:"level"`  // "debug", "info", "warn", "error"
	File    string `yaml:"file"`   // Log file path (empty = disabled)
}

// Extension sets per ignore category, lowercase without leading dot
var (
	archiveExtensions  = []string{"zip", "7z", "rar", "gz", "tar", "bz2"}
	imageExtensions    = []string{"jpg", "jpeg", "png", "gif", "bmp"}
	documentExtensions = []string{"txt", "nfo", "md", "pdf", "log"}
	saveExtensions     = []string{"sav", "srm", "state"}
)

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			Mode:        models.ModeFlat,
			MinDirFiles: 3,
			WorkDir:     "duper_working",
		},
		Ignore: IgnoreConfig{
			Archives:  false,
			Images:    false,
			Documents: true,
			Saves:     true,
		},
		Performance: PerformanceConfig{
			BufferSize:     65536,
			BandwidthLimit: 0,
		},
		Output: OutputConfig{
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Format:  "text",
			Level:   "info",
		},
	}
}

// IgnoredExtensions builds the effective set of ignored extensions,
// lowercase and without leading dots
func (c *Config) IgnoredExtensions() map[string]bool {
	set := make(map[string]bool)

	add := func(exts []string) {
		for _, ext := range exts {
			set[ext] = true
		}
	}

	if c.Ignore.Archives {
		add(archiveExtensions)
	}
	if c.Ignore.Images {
		add(imageExtensions)
	}
	if c.Ignore.Documents {
		add(documentExtensions)
	}
	if c.Ignore.Saves {
		add(saveExtensions)
	}

	for _, ext := range c.Ignore.Extra {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = true
		}
	}

	return set
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validModes := map[models.DirectoryMode]bool{
		models.ModeFlat:         true,
		models.ModeHierarchical: true,
	}
	if !validModes[c.Scan.Mode] {
		return &models.ValidationError{
			Field:   "scan.mode",
			Message: "must be 'flat' or 'hierarchical'",
		}
	}

	if c.Scan.MinDirFiles < 0 {
		return &models.ValidationError{
			Field:   "scan.min_dir_files",
			Message: "must not be negative",
		}
	}

	if c.Scan.WorkDir == "" {
		return &models.ValidationError{
			Field:   "scan.work_dir",
			Message: "must not be empty",
		}
	}

	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if c.Performance.BandwidthLimit < 0 {
		return &models.ValidationError{
			Field:   "performance.bandwidth_limit",
			Message: "must not be negative",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}
