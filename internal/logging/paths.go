package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir resolves ~/.semidx/logs, or a temp-dir equivalent when
// the home directory cannot be determined.
func DefaultLogDir() string {
	base, err := os.UserHomeDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, ".semidx", "logs")
}

// DefaultLogPath is the default log file inside DefaultLogDir.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "semidx.log")
}

// EnsureLogDir creates the log directory tree when missing.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}
