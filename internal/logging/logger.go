package logging

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Logger is the interface for logging
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
}

// Init configures the process-wide logger. Unknown levels fall back to info;
// format is "json" or "text", anything else means text.
func Init(level, format string) {
	log.SetOutput(os.Stdout)
	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	l, err := log.ParseLevel(level)
	if err != nil {
		l = log.InfoLevel
	}
	log.SetLevel(l)
}

func L() *log.Logger { return log.StandardLogger() }

// Named returns a logger tagged with a component field.
func Named(component string) Logger {
	return log.StandardLogger().WithField("component", component)
}

// NewDefaultLogger creates a default logger
func NewDefaultLogger() Logger {
	return log.StandardLogger()
}
