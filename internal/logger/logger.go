// Package logger configures the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/yukikurage/task-user-api/internal/config"
	gormlogger "gorm.io/gorm/logger"
)

// ParseLevel maps a configured level name to a slog level. Unknown names fall
// back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

// New builds a logger writing to w in the configured format.
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// Setup creates the stdout logger and installs it as the slog default.
func Setup(cfg config.LogConfig) *slog.Logger {
	logger := New(os.Stdout, cfg)
	slog.SetDefault(logger)
	return logger
}

// Gorm bridges gorm's query logger onto logger. SQL statements are only
// logged when the process runs at debug level.
func Gorm(logger *slog.Logger, cfg config.LogConfig) gormlogger.Interface {
	level := gormlogger.Warn
	if ParseLevel(cfg.Level) == slog.LevelDebug {
		level = gormlogger.Info
	}

	return gormlogger.New(
		slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}
