package output

import (
	"io"
	"os"
)

// ResolveColorMode determines the effective isTTY value from a --color flag
// value ("never", "always" or "auto") and the detected TTY state. In auto
// mode a non-empty NO_COLOR disables colors.
func ResolveColorMode(colorMode string, isTTY bool) bool {
	switch colorMode {
	case "never":
		return false
	case "always":
		return true
	default:
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		return isTTY
	}
}

// IsTTY reports whether writer is a terminal *os.File.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
