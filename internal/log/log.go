// Package log is a thin facade over logrus so the rest of the codebase
// logs through one place. The TUI owns the terminal, so logs default to
// a file (or io.Discard) rather than stderr.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// SetFile redirects log output to the named file, appending.
func SetFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	logger.SetOutput(f)
	return nil
}

// SetOutput redirects log output to an arbitrary writer.
func SetOutput(w io.Writer) { logger.SetOutput(w) }

// SetLevel parses and applies a logrus level name ("debug", "info", ...).
func SetLevel(level string) {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	logger.SetLevel(lv)
}

func Debugf(format string, args ...any) { logger.Debugf(format, args...) }
func Infof(format string, args ...any)  { logger.Infof(format, args...) }
func Warnf(format string, args ...any)  { logger.Warnf(format, args...) }
func Errorf(format string, args ...any) { logger.Errorf(format, args...) }

// WithField returns an entry carrying one structured field.
func WithField(key string, value any) *logrus.Entry {
	return logger.WithField(key, value)
}
