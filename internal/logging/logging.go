// Package logging builds the application logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/llehouerou/streamwave/internal/config"
)

// New creates a logger writing to stderr, or to a rotated file when
// cfg.File is set. The returned closer releases the file and must be
// called on shutdown.
func New(cfg config.LogConfig) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		w, closer = rotated, rotated
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "streamwave",
	})
	if cfg.File != "" {
		logger.SetFormatter(log.LogfmtFormatter)
	}
	return logger, closer, nil
}

// Writer returns an io.Writer that logs each written line at level.
// Used to route subprocess stderr into the logger.
func Writer(logger *log.Logger, level log.Level) io.Writer {
	return logger.StandardLog(log.StandardLogOptions{ForceLevel: level}).Writer()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
