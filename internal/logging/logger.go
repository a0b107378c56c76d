package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is a log severity level.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return Info, fmt.Errorf("unknown log level %q", s)
	}
}

// Format is a log output format.
type Format string

const (
	Logfmt Format = "logfmt"
	JSON   Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "logfmt":
		return Logfmt, nil
	case "json":
		return JSON, nil
	default:
		return Logfmt, fmt.Errorf("unknown log format %q", s)
	}
}

// Logger is a key/value logger on top of logrus:
//
//	log.Info("wrote report", "output", path, "tags", n)
//
// Odd trailing values and non-string keys are dropped. All methods are safe
// for concurrent use.
type Logger struct {
	entry *logrus.Logger
}

func New(out io.Writer, level Level, format Format) *Logger {
	if out == nil {
		out = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrusLevel(level))

	switch format {
	case JSON:
		l.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{logrus.FieldKeyTime: "ts"},
		})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			DisableColors:    true,
			FullTimestamp:    true,
			QuoteEmptyFields: true,
			FieldMap:         logrus.FieldMap{logrus.FieldKeyTime: "ts"},
		})
	}

	return &Logger{entry: l}
}

func (l *Logger) Debug(msg string, kv ...any) { l.log(logrus.DebugLevel, msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(logrus.InfoLevel, msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(logrus.WarnLevel, msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.log(logrus.ErrorLevel, msg, kv...) }

func (l *Logger) log(lvl logrus.Level, msg string, kv ...any) {
	if !l.entry.IsLevelEnabled(lvl) {
		return
	}
	l.entry.WithFields(fields(kv...)).Log(lvl, msg)
}

func fields(kv ...any) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[k] = kv[i+1]
	}
	return f
}

func logrusLevel(lvl Level) logrus.Level {
	switch lvl {
	case Debug:
		return logrus.DebugLevel
	case Warn:
		return logrus.WarnLevel
	case Error:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
