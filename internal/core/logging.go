package core

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger constructs the logrus.Logger used by every component of the
// server. It's built once at startup and threaded through the Server, the
// Dispatcher and the upstream client rather than kept as a package-level global, per
// the "remove hidden coupling" design note: every other server in this
// codebase receives its logger explicitly instead of reaching for one.
func NewLogger(cfg *Config) (*logrus.Logger, error) {
	var w io.Writer
	if cfg.LogFilePath == "" {
		w = os.Stdout
	} else {
		f, err := os.OpenFile(cfg.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.LogFilePath, err)
		}
		w = f
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level %q: %w", cfg.LogLevel, err)
	}

	return &logrus.Logger{
		Out: w,
		Formatter: &logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
			DisableSorting:  true,
		},
		Hooks: make(logrus.LevelHooks),
		Level: level,
	}, nil
}
