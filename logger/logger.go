// Package logger provides the structured logging used across the index
// engine: one logrus instance per severity band, a compact caller-tagged
// formatter, and package-level helpers so callers never touch logrus
// directly.
//
// Unlike a generic app logger, every lifecycle and split event the
// engine reports carries the page numbers and relation identity it
// happened to (see Event and the With* helpers below) so a log line on
// its own says which index and which page, not just which function.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	Logger      *logrus.Logger
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

// Config controls where the info and error streams are written and at
// what level they log.
type Config struct {
	ErrorLogPath string
	InfoLogPath  string
	LogLevel     string
}

// CallerFormatter renders a single-line, caller-tagged record, with any
// structured fields attached to the entry (relation, page numbers,
// split kind, ...) rendered as trailing key=value pairs in a fixed,
// sorted order so the same event type always lines up in a log stream.
type CallerFormatter struct {
	TimestampFormat string
}

func (f *CallerFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	ts := entry.Time.Format(f.TimestampFormat)
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] (%s) %s", ts, level, caller(), entry.Message)
	for _, k := range sortedFieldKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func sortedFieldKeys(fields logrus.Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func caller() string {
	for i := 2; i < 20; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if strings.Contains(file, "sirupsen") || strings.Contains(file, "/logger.go") {
			continue
		}
		fn := runtime.FuncForPC(pc).Name()
		return fmt.Sprintf("%s:%s:%d", filepath.Base(file), fn, line)
	}
	return "unknown:unknown:0"
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// Init sets up the package-level loggers. Safe to call more than once;
// the most recent configuration wins.
func Init(cfg Config) error {
	formatter := &CallerFormatter{TimestampFormat: "15:04:05 MST 2006/01/02"}

	Logger = logrus.New()
	Logger.SetFormatter(formatter)
	Logger.SetLevel(parseLevel(cfg.LogLevel))

	InfoLogger = logrus.New()
	InfoLogger.SetFormatter(formatter)
	InfoLogger.SetLevel(parseLevel(cfg.LogLevel))

	ErrorLogger = logrus.New()
	ErrorLogger.SetFormatter(formatter)
	ErrorLogger.SetLevel(parseLevel(cfg.LogLevel))

	if cfg.InfoLogPath != "" {
		f, err := openLogFile(cfg.InfoLogPath)
		if err != nil {
			InfoLogger.SetOutput(os.Stdout)
			InfoLogger.Warnf("failed to open info log %s, falling back to stdout: %v", cfg.InfoLogPath, err)
		} else {
			InfoLogger.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	} else {
		InfoLogger.SetOutput(os.Stdout)
	}

	if cfg.ErrorLogPath != "" {
		f, err := openLogFile(cfg.ErrorLogPath)
		if err != nil {
			ErrorLogger.SetOutput(os.Stderr)
			ErrorLogger.Warnf("failed to open error log %s, falling back to stderr: %v", cfg.ErrorLogPath, err)
		} else {
			ErrorLogger.SetOutput(io.MultiWriter(os.Stderr, f))
		}
	} else {
		ErrorLogger.SetOutput(os.Stderr)
	}

	Logger.SetOutput(InfoLogger.Out)
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
}

func ensure() {
	if InfoLogger == nil || ErrorLogger == nil || Logger == nil {
		Init(Config{LogLevel: "info"})
	}
}

func Info(args ...interface{})                 { ensure(); InfoLogger.Info(args...) }
func Infof(format string, args ...interface{}) { ensure(); InfoLogger.Infof(format, args...) }
func Debug(args ...interface{})                 { ensure(); Logger.Debug(args...) }
func Debugf(format string, args ...interface{}) { ensure(); Logger.Debugf(format, args...) }
func Warn(args ...interface{})                 { ensure(); Logger.Warn(args...) }
func Warnf(format string, args ...interface{}) { ensure(); Logger.Warnf(format, args...) }
func Error(args ...interface{})                 { ensure(); ErrorLogger.Error(args...) }
func Errorf(format string, args ...interface{}) { ensure(); ErrorLogger.Errorf(format, args...) }

// Event returns an info-level entry pre-tagged with the index identity
// a lifecycle or split log line happened under (index create/open,
// split events, and bulk-load progress). Callers add fields with
// WithPage/WithField as needed, e.g.
// logger.WithPage(logger.Event("orders", 4), rootNo).Info("root grown").
func Event(relation string, attrByteOffset int32) *logrus.Entry {
	ensure()
	return InfoLogger.WithFields(logrus.Fields{
		"relation":    relation,
		"attr_offset": attrByteOffset,
	})
}

// WithPage tags an entry with a page number. Defined as a free function
// rather than a method on *logrus.Entry (which this package does not
// own) so call sites read logger.WithPage(entry, pageNo) or, more
// commonly, entry.WithField("page", pageNo) directly -- this helper
// exists only to keep the field name ("page") consistent everywhere it
// is logged.
func WithPage(entry *logrus.Entry, pageNo uint32) *logrus.Entry {
	return entry.WithField("page", pageNo)
}
