// Package iologger provides slog-based logging initialization and
// configuration.
package iologger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnames/fungidb/pkg/config"
)

// LogFile is the name of the log file inside the log directory.
const LogFile = "fungidb.log"

// Init sets the default slog logger according to cfg.
// For the "file" destination the log is appended to logDir/fungidb.log,
// so consecutive acquirer passes keep their history.
func Init(logDir string, cfg config.LogConfig) (io.Closer, error) {
	writer, closer, err := destination(logDir, cfg.Destination)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(NewHandler(writer, cfg)))
	return closer, nil
}

// NewHandler creates a slog handler writing to w with format and
// level taken from cfg.
func NewHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	switch cfg.Format {
	case "text", "tint":
		return slog.NewTextHandler(w, opts)
	default:
		return slog.NewJSONHandler(w, opts)
	}
}

func destination(logDir, dest string) (io.Writer, io.Closer, error) {
	switch dest {
	case "stdout":
		return os.Stdout, io.NopCloser(nil), nil
	case "file":
		logPath := filepath.Join(logDir, LogFile)
		f, err := os.OpenFile(
			logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644,
		)
		if err != nil {
			return nil, nil, CreateLogFileError(logPath, err)
		}
		return f, f, nil
	default:
		return os.Stderr, io.NopCloser(nil), nil
	}
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
