package observability

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoggerOptions configures NewLogger.
type LoggerOptions struct {
	Level  string    // logrus level name, default "info"
	Format string    // "text" or "json", default "text"
	Output io.Writer // default os.Stderr
}

// NewLogger builds the process logger.
// An unknown level falls back to info and is reported once at warn.
func NewLogger(opts LoggerOptions) *logrus.Logger {
	logger := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	if strings.EqualFold(opts.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			logger.WithField("level", opts.Level).Warn("unknown log level, using info")
		} else {
			level = parsed
		}
	}
	logger.SetLevel(level)

	return logger
}

// Component returns an entry tagged with the component name.
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("component", name)
}

// Discard returns an entry that drops everything. Used by tests and optional collaborators.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
