package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"pdf-revision-engine/internal/domain"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// AppLogger implements the domain.Logger interface
type AppLogger struct {
	level  LogLevel
	logger *log.Logger
	now    func() time.Time
}

// NewLogger creates a logger writing to stdout
func NewLogger(levelStr string) domain.Logger {
	return NewLoggerWithWriter(levelStr, os.Stdout)
}

// NewLoggerWithWriter creates a logger writing to out
func NewLoggerWithWriter(levelStr string, out io.Writer) *AppLogger {
	return &AppLogger{
		level:  parseLogLevel(levelStr),
		logger: log.New(out, "", 0),
		now:    time.Now,
	}
}

// Level returns the active threshold
func (l *AppLogger) Level() LogLevel {
	return l.level
}

func (l *AppLogger) Info(msg string, fields ...interface{}) {
	l.write(INFO, msg, fields)
}

// Error logs msg with err as the leading "error" field.
func (l *AppLogger) Error(msg string, err error, fields ...interface{}) {
	if err != nil {
		fields = append([]interface{}{"error", err}, fields...)
	}
	l.write(ERROR, msg, fields)
}

func (l *AppLogger) Debug(msg string, fields ...interface{}) {
	l.write(DEBUG, msg, fields)
}

func (l *AppLogger) Warn(msg string, fields ...interface{}) {
	l.write(WARN, msg, fields)
}

func (l *AppLogger) write(level LogLevel, msg string, fields []interface{}) {
	if level < l.level {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", l.now().Format("2006-01-02 15:04:05"), levelNames[level], msg)

	// A trailing key without a value is dropped.
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%s", fields[i], formatValue(fields[i+1]))
	}

	l.logger.Println(b.String())
}

func formatValue(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	if strings.ContainsAny(s, " \t\n\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// parseLogLevel converts string log level to LogLevel enum
func parseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}
