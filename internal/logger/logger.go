package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level represents the logging level.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var logrusLevels = map[Level]logrus.Level{
	DEBUG: logrus.DebugLevel,
	INFO:  logrus.InfoLevel,
	WARN:  logrus.WarnLevel,
	ERROR: logrus.ErrorLevel,
	FATAL: logrus.FatalLevel,
}

var (
	defaultLogger *logrus.Logger
	mu            sync.Mutex
	once          sync.Once
)

// Init initializes the default logger with the specified level.
// Output goes to stderr, which keeps stdout free for command results.
func Init(levelStr string) {
	once.Do(func() {
		l := logrus.New()
		l.SetOutput(os.Stderr)
		l.SetLevel(logrusLevels[parseLevel(levelStr)])
		l.SetFormatter(newFormatter(false))
		defaultLogger = l
	})
}

func get() *logrus.Logger {
	Init("info")
	return defaultLogger
}

func newFormatter(color bool) logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:    true,
		ForceColors:      color,
		DisableColors:    !color,
		DisableQuote:     true,
		QuoteEmptyFields: true,
	}
}

// SetLevel sets the logging level for the default logger.
func SetLevel(levelStr string) {
	mu.Lock()
	defer mu.Unlock()
	get().SetLevel(logrusLevels[parseLevel(levelStr)])
}

// SetOutput sets the output destination for the default logger.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	get().SetOutput(w)
}

// SetColorEnable enables or disables color output.
func SetColorEnable(enable bool) {
	mu.Lock()
	defer mu.Unlock()
	get().SetFormatter(newFormatter(enable))
}

// parseLevel converts a string to a Level.
func parseLevel(levelStr string) Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(name string) *logrus.Entry {
	return get().WithField("component", name)
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	get().Debugf(format, args...)
}

// Debugf is an alias for Debug.
func Debugf(format string, args ...interface{}) {
	Debug(format, args...)
}

// Info logs an info message.
func Info(format string, args ...interface{}) {
	get().Infof(format, args...)
}

// Infof is an alias for Info.
func Infof(format string, args ...interface{}) {
	Info(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	get().Warnf(format, args...)
}

// Warnf is an alias for Warn.
func Warnf(format string, args ...interface{}) {
	Warn(format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	get().Errorf(format, args...)
}

// Errorf is an alias for Error.
func Errorf(format string, args ...interface{}) {
	Error(format, args...)
}

// Fatal logs a fatal message and exits the program.
func Fatal(format string, args ...interface{}) {
	get().Fatalf(format, args...)
}

// Fatalf is an alias for Fatal.
func Fatalf(format string, args ...interface{}) {
	Fatal(format, args...)
}
