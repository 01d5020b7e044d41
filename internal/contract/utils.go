package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "ERROR: %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".srcmeasure_history.db"
	}
	return filepath.Join(homeDir, ".srcmeasure_history.db")
}

// DefaultScratchDir returns the parent directory for per-item working directories.
func DefaultScratchDir() string {
	return filepath.Join(os.TempDir(), "srcmeasure")
}

// DefaultMirrorDir returns the persistent mirror store location.
func DefaultMirrorDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "srcmeasure", "gits")
	}
	return filepath.Join(os.TempDir(), "srcmeasure-gits")
}

// TruncateText truncates s to maxWidth runes with an ellipsis prefix.
// Requires maxWidth > 3 to leave room for the prefix and at least one character.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return s
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
