package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gorewood/promptlog/internal/filter"
)

// ValidationError lists every invalid setting found.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks value ranges and compiles extra filter patterns.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.LockTimeout.Std() <= 0 {
		add("lock_timeout must be positive")
	}
	if c.MaxContentBytes < 0 {
		add("max_content_bytes must not be negative")
	} else if c.MaxContentBytes > 0 && c.MaxContentBytes < filter.MinMaxBytes {
		add("max_content_bytes must be 0 or at least %d", filter.MinMaxBytes)
	}
	if c.MarkerName == "" || strings.ContainsAny(c.MarkerName, `/\`) || c.MarkerName != filepath.Base(c.MarkerName) {
		add("marker_name %q must be a plain file name", c.MarkerName)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		add("log_level: %v", err)
	}
	for i, p := range c.Filter.ExtraPatterns {
		if p.Name == "" {
			add("filter.extra_patterns[%d]: name is required", i)
		}
		if _, err := regexp.Compile(p.Regex); err != nil {
			add("filter.extra_patterns[%d] %q: %v", i, p.Name, err)
		}
	}
	if t := c.Learnings.Threshold; t < 0 || t > 1 {
		add("learnings.threshold %.2f must be within [0, 1]", t)
	}
	if c.Learnings.DedupMaxSize < 1 {
		add("learnings.dedup_max_size must be at least 1")
	}
	if c.Learnings.ExcerptBytes < 64 {
		add("learnings.excerpt_bytes must be at least 64")
	}
	switch c.Learnings.Store {
	case StoreSQLite, StoreNone:
	default:
		add("learnings.store %q must be %q or %q", c.Learnings.Store, StoreSQLite, StoreNone)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
