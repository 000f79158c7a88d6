package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gorewood/promptlog/internal/envfile"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PROMPTLOG_"

// Duration is a time.Duration that decodes from "30s" or a bare number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := parseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// PatternConfig is an extra redaction rule.
type PatternConfig struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
}

// FilterConfig configures the secret filter.
type FilterConfig struct {
	ExtraPatterns []PatternConfig `yaml:"extra_patterns"`
}

// Learning store backends.
const (
	StoreSQLite = "sqlite"
	StoreNone   = "none"
)

// LearningsConfig configures tool-learning extraction.
type LearningsConfig struct {
	Threshold    float64 `yaml:"threshold"`
	DedupMaxSize int     `yaml:"dedup_max_size"`
	ExcerptBytes int     `yaml:"excerpt_bytes"`
	Store        string  `yaml:"store"`
	// StateDir holds per-session dedup state. Empty means <Dir()>/state.
	StateDir string `yaml:"state_dir"`
}

// Config is the merged promptlog configuration.
type Config struct {
	LockTimeout       Duration        `yaml:"lock_timeout"`
	BackupBeforeWrite bool            `yaml:"backup_before_write"`
	MaxContentBytes   int             `yaml:"max_content_bytes"`
	MarkerName        string          `yaml:"marker_name"`
	LogDir            string          `yaml:"log_dir"`
	LogLevel          string          `yaml:"log_level"`
	ArchiveDir        string          `yaml:"archive_dir"`
	Filter            FilterConfig    `yaml:"filter"`
	Learnings         LearningsConfig `yaml:"learnings"`

	// Sources lists the files merged into this config, lowest precedence first.
	Sources []string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LockTimeout:       Duration(30 * time.Second),
		BackupBeforeWrite: true,
		MaxContentBytes:   50_000,
		MarkerName:        ".promptlog-enabled",
		LogDir:            ".promptlog",
		LogLevel:          "warn",
		Learnings: LearningsConfig{
			Threshold:    0.6,
			DedupMaxSize: 100,
			ExcerptBytes: 1024,
			Store:        StoreSQLite,
		},
	}
}

// Load builds the config for a project: defaults, then the global file, then
// the nearest project file, then .env.local/.env in projectDir, then
// PROMPTLOG_* variables. An empty projectDir skips the project layers.
func Load(projectDir string) (*Config, error) {
	cfg := Default()

	if err := cfg.MergeFile(GlobalFile()); err != nil {
		return nil, err
	}
	if projectDir != "" {
		if err := cfg.MergeFile(ProjectFile(projectDir)); err != nil {
			return nil, err
		}
		for _, name := range []string{".env.local", ".env"} {
			if _, err := envfile.LoadPrefixed(filepath.Join(projectDir, name), EnvPrefix); err != nil {
				return nil, err
			}
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeFile overlays the YAML file at path. Keys absent from the file keep
// their current values. Missing files and an empty path are ignored.
func (c *Config) MergeFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := c.Merge(data); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	c.Sources = append(c.Sources, path)
	return nil
}

// Merge overlays YAML data onto c.
func (c *Config) Merge(data []byte) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return yaml.Unmarshal(data, c)
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays PROMPTLOG_* variables found through lookup.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	if v, ok := lookup(EnvPrefix + "LOCK_TIMEOUT"); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sLOCK_TIMEOUT: %w", EnvPrefix, err))
		} else {
			c.LockTimeout = Duration(d)
		}
	}
	if v, ok := lookup(EnvPrefix + "BACKUP_BEFORE_WRITE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sBACKUP_BEFORE_WRITE: %w", EnvPrefix, err))
		} else {
			c.BackupBeforeWrite = b
		}
	}
	if v, ok := lookup(EnvPrefix + "LEARNINGS_THRESHOLD"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sLEARNINGS_THRESHOLD: %w", EnvPrefix, err))
		} else {
			c.Learnings.Threshold = f
		}
	}
	num("MAX_CONTENT_BYTES", &c.MaxContentBytes)
	num("LEARNINGS_DEDUP_MAX_SIZE", &c.Learnings.DedupMaxSize)
	num("LEARNINGS_EXCERPT_BYTES", &c.Learnings.ExcerptBytes)
	str("MARKER_NAME", &c.MarkerName)
	str("LOG_DIR", &c.LogDir)
	str("LOG_LEVEL", &c.LogLevel)
	str("ARCHIVE_DIR", &c.ArchiveDir)
	str("LEARNINGS_STORE", &c.Learnings.Store)
	str("LEARNINGS_STATE_DIR", &c.Learnings.StateDir)

	return errors.Join(errs...)
}

// StateDir returns the directory for per-session learning state.
func (c *Config) StateDir() string {
	if c.Learnings.StateDir != "" {
		return c.Learnings.StateDir
	}
	return filepath.Join(Dir(), "state")
}
