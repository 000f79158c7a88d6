package promptlog

import (
	"path/filepath"
	"strings"
)

// FileSuffix names prompt log files. The content is NDJSON despite the .json
// extension.
const FileSuffix = ".prompt-log.json"

// DefaultDirName is the project-relative directory holding the log.
const DefaultDirName = ".promptlog"

// LogPath returns the log file for a project: <project>/<dir>/<name>.prompt-log.json,
// where name is the project directory's base name. An empty dir uses
// DefaultDirName.
func LogPath(projectDir, dir string) string {
	if dir == "" {
		dir = DefaultDirName
	}
	name := filepath.Base(filepath.Clean(projectDir))
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "project"
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectDir, dir)
	}
	return filepath.Join(dir, name+FileSuffix)
}

// IsLogFile reports whether a file name follows the log naming convention.
func IsLogFile(name string) bool {
	return strings.HasSuffix(name, FileSuffix)
}
