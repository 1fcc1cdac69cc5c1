package logger

import (
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog.Logger and attaches the call site to every event.
type Logger struct {
	logger zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json, console
	Output      io.Writer
	EnableColor bool
}

var (
	globalLogger *Logger
	initOnce     sync.Once
)

// Initialize replaces the global logger.
func Initialize(cfg Config) {
	zerolog.SetGlobalLevel(parseLogLevel(cfg.Level))

	var output io.Writer = os.Stdout
	if cfg.Output != nil {
		output = cfg.Output
	}
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    !cfg.EnableColor,
		}
	}

	zl := zerolog.New(output).With().Timestamp().Logger()
	globalLogger = &Logger{logger: zl}
	log.Logger = zl
}

func parseLogLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Get returns the global logger, initializing a console logger on first use.
func Get() *Logger {
	initOnce.Do(func() {
		if globalLogger == nil {
			Initialize(Config{Level: "info", Format: "console", EnableColor: true})
		}
	})
	return globalLogger
}

// WithContext returns a child logger carrying the given fields.
func (l *Logger) WithContext(fields map[string]interface{}) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{logger: ctx.Logger()}
}

// emit finishes an event. skip is the number of frames between emit and the
// code that called the public logging function.
func emit(event *zerolog.Event, skip int, msg string, fields []map[string]interface{}) {
	if event == nil {
		return
	}
	if pc, file, line, ok := runtime.Caller(skip + 1); ok {
		event = event.Str("caller", zerolog.CallerMarshalFunc(pc, file, line))
	}
	for _, f := range fields {
		for k, v := range f {
			event = event.Interface(k, v)
		}
	}
	event.Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Debug(), 1, msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Info(), 1, msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Warn(), 1, msg, fields)
}

func (l *Logger) Error(msg string, err error, fields ...map[string]interface{}) {
	emit(l.logger.Error().Err(err), 1, msg, fields)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	emit(l.logger.Fatal().Err(err), 1, msg, fields)
}

// Package-level helpers write through the global logger.

func Debug(msg string, fields ...map[string]interface{}) {
	emit(Get().logger.Debug(), 1, msg, fields)
}

func Info(msg string, fields ...map[string]interface{}) {
	emit(Get().logger.Info(), 1, msg, fields)
}

func Warn(msg string, fields ...map[string]interface{}) {
	emit(Get().logger.Warn(), 1, msg, fields)
}

func Error(msg string, err error, fields ...map[string]interface{}) {
	emit(Get().logger.Error().Err(err), 1, msg, fields)
}

func Fatal(msg string, err error, fields ...map[string]interface{}) {
	emit(Get().logger.Fatal().Err(err), 1, msg, fields)
}

func WithContext(fields map[string]interface{}) *Logger {
	return Get().WithContext(fields)
}
