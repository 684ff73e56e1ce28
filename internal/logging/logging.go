// Package logging provides a thin, component-scoped wrapper over logrus,
// matching the facade the teacher corpus uses so call sites read as
// log.WithComponent("engine").WithField("session", id).Debug("...").
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	root = logrus.New()
	once sync.Once
)

// Configure sets the base logger's level and output. Safe to call once at
// process startup; subsequent calls are no-ops.
func Configure(level logrus.Level, out io.Writer) {
	once.Do(func() {
		root.SetLevel(level)
		if out == nil {
			out = os.Stderr
		}
		root.SetOutput(out)
		root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	})
}

// Entry is a component-scoped logger handle.
type Entry struct {
	e *logrus.Entry
}

// WithComponent returns an Entry tagged with the given component name,
// mirroring the teacher's log.WithComponent convention so every log line
// can be traced back to the subsystem that emitted it.
func WithComponent(name string) Entry {
	return Entry{e: root.WithField("component", name)}
}

func (l Entry) WithField(key string, value interface{}) Entry {
	return Entry{e: l.e.WithField(key, value)}
}

func (l Entry) WithError(err error) Entry {
	return Entry{e: l.e.WithError(err)}
}

func (l Entry) Debug(msg string)                          { l.e.Debug(msg) }
func (l Entry) Debugf(format string, args ...interface{})  { l.e.Debugf(format, args...) }
func (l Entry) Info(msg string)                            { l.e.Info(msg) }
func (l Entry) Infof(format string, args ...interface{})   { l.e.Infof(format, args...) }
func (l Entry) Warn(msg string)                            { l.e.Warn(msg) }
func (l Entry) Warnf(format string, args ...interface{})   { l.e.Warnf(format, args...) }
func (l Entry) Error(msg string)                           { l.e.Error(msg) }
func (l Entry) Errorf(format string, args ...interface{})  { l.e.Errorf(format, args...) }
