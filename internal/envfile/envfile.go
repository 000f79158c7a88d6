// Package envfile loads environment variables from .env files.
// Variables already set in the environment take precedence.
package envfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads a .env file and sets any variables not already in the environment.
// Returns nil if the file doesn't exist. Returns an error only for read failures.
func Load(path string) error {
	_, err := LoadPrefixed(path, "")
	return err
}

// LoadPrefixed is Load restricted to keys starting with prefix, so a
// project .env can configure this tool without leaking unrelated variables.
// It returns the number of variables set.
func LoadPrefixed(path, prefix string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("opening env file %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // best-effort close on read-only file

	vars, err := Parse(file)
	if err != nil {
		return 0, fmt.Errorf("reading env file %s: %w", path, err)
	}

	set := 0
	for _, kv := range vars {
		if !strings.HasPrefix(kv.Key, prefix) {
			continue
		}
		if _, exists := os.LookupEnv(kv.Key); exists {
			continue
		}
		if err := os.Setenv(kv.Key, kv.Value); err != nil {
			return set, fmt.Errorf("setting %s: %w", kv.Key, err)
		}
		set++
	}
	return set, nil
}

// Var is one KEY=VALUE assignment.
type Var struct {
	Key   string
	Value string
}

// Parse reads assignments from r in file order. Blank lines, comments and
// lines without '=' are skipped.
func Parse(r io.Reader) ([]Var, error) {
	var vars []Var
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		vars = append(vars, Var{Key: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vars, nil
}

// parseEnvLine extracts KEY=VALUE from a line.
// Handles optional quoting (single or double quotes) around the value.
func parseEnvLine(line string) (key, value string, ok bool) {
	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), "export "))
	if key == "" {
		return "", "", false
	}

	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return key, value[1 : len(value)-1], true
		}
	}
	// Unquoted values may carry a trailing comment.
	if i := strings.Index(value, " #"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	return key, value, true
}
