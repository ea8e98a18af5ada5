package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	log  *slog.Logger
	file *lumberjack.Logger
}

// NewLogger пишет в stdout и, если задан logPath, в ротируемый файл.
func NewLogger(logPath, logLevel string) *Logger {
	var out io.Writer = os.Stdout
	var file *lumberjack.Logger
	if logPath != "" {
		file = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, file)
	}

	return NewLoggerWriter(out, logLevel, file)
}

// NewLoggerWriter builds a Logger over an arbitrary writer; closer may be nil.
func NewLoggerWriter(w io.Writer, logLevel string, closer *lumberjack.Logger) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(logLevel)})
	return &Logger{log: slog.New(handler), file: closer}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	if l == nil {
		return
	}
	l.log.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	if l == nil {
		return
	}
	l.log.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	if l == nil {
		return
	}
	l.log.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	if l == nil {
		return
	}
	l.log.Error(msg, fields...)
}

// Close закрывает файл лога, если он открыт
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
