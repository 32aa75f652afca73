// Package logging configures structured slog logging for semidx.
//
// Logs are written as JSON lines to a size-rotated file under
// ~/.semidx/logs/, optionally teed to stderr for interactive use.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls where and how verbosely logs are written.
type Config struct {
	// Level is the minimum level: debug, info, warn, or error.
	Level string
	// FilePath is the log file destination.
	FilePath string
	// MaxSizeMB is the rotation threshold per file.
	MaxSizeMB int
	// MaxFiles is how many rotated files to keep.
	MaxFiles int
	// WriteToStderr tees output to stderr as well.
	WriteToStderr bool
}

// DefaultConfig logs at info level to the default file location.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		FilePath:  DefaultLogPath(),
		MaxSizeMB: 10,
		MaxFiles:  5,
	}
}

// DebugConfig logs at debug level and mirrors everything to stderr.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.WriteToStderr = true
	return cfg
}

// Setup opens the rotating log file and builds a JSON slog logger on
// it. The returned cleanup flushes and closes the file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var sink io.Writer = writer
	if cfg.WriteToStderr {
		sink = io.MultiWriter(writer, os.Stderr)
	}

	logger := slog.New(slog.NewJSONHandler(sink, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}))

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}
	return logger, cleanup, nil
}

// SetupDefault runs Setup and installs the logger as the slog default.
func SetupDefault(cfg Config) (func(), error) {
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseLevel maps a level name to slog.Level, defaulting to info.
func parseLevel(level string) slog.Level {
	if l, ok := levelNames[strings.ToLower(level)]; ok {
		return l
	}
	return slog.LevelInfo
}

// LevelFromString is the exported form of parseLevel.
func LevelFromString(level string) slog.Level {
	return parseLevel(level)
}
