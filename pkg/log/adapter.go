package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the application logger writing to out at the named level
// ("debug", "info", "warn", ...).
func NewLogger(out io.Writer, level string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
		return logger, err
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// BadgerLogger implements badger.Logger on top of logrus.
// Badger reports table replay and compaction at info level; those are demoted
// to debug and badger's own debug output to trace.
type BadgerLogger struct {
	entry *logrus.Entry
}

// NewBadgerLogger creates a new adapter
func NewBadgerLogger(entry *logrus.Entry) *BadgerLogger {
	return &BadgerLogger{entry: entry}
}

func (l *BadgerLogger) Errorf(f string, v ...interface{})   { l.entry.Errorf(f, v...) }
func (l *BadgerLogger) Warningf(f string, v ...interface{}) { l.entry.Warnf(f, v...) }
func (l *BadgerLogger) Infof(f string, v ...interface{})    { l.entry.Debugf(f, v...) }
func (l *BadgerLogger) Debugf(f string, v ...interface{})   { l.entry.Tracef(f, v...) }
