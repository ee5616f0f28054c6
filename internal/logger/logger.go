// Package logger provides a structured logging wrapper around Go's slog package.
// It supports JSON and text output, the usual log levels (debug, info, warn, error)
// and output to stdout, stderr or a file. A Tee writer receives a copy of every
// record, which is how a backup run captures its own log for the emailed report.
//
// Example usage:
//
//	var buf bytes.Buffer
//	log, err := logger.New(logger.Config{
//	    Level:  "info",
//	    Format: "text",
//	    Output: "stderr",
//	    Tee:    &buf,
//	})
//	if err != nil {
//	    return err
//	}
//
//	log.Info("Starting backup", logger.Field{Key: "site", Value: "acme"})
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config представляет конфигурацию logger
type Config struct {
	Level  string    // debug, info, warn, error
	Format string    // json, text
	Output string    // stdout, stderr, или путь к файлу
	Tee    io.Writer // дополнительный получатель копии записей (может быть nil)
}

// Logger представляет обёртку вокруг slog.Logger
type Logger struct {
	slog *slog.Logger
}

// Field представляет поле для structured logging
type Field struct {
	Key   string
	Value any
}

// New создает новый logger с заданной конфигурацией
func New(cfg Config) (*Logger, error) {
	level, valid := parseLevel(cfg.Level)
	if !valid {
		return nil, fmt.Errorf("invalid log level: %s (expected: debug, info, warn, error)", cfg.Level)
	}

	writer, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	if cfg.Tee != nil {
		writer = io.MultiWriter(writer, cfg.Tee)
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s (expected: json, text)", cfg.Format)
	}

	return &Logger{
		slog: slog.New(handler),
	}, nil
}

// Nop возвращает logger, который ничего не пишет
func Nop() *Logger {
	return &Logger{slog: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// openOutput определяет writer для вывода
func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	}

	// Путь к файлу - разворачиваем ~ в домашнюю директорию
	filePath := output
	if strings.HasPrefix(filePath, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(homeDir, filePath[2:])
	}
	filePath = filepath.Clean(filePath)

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}
	return file, nil
}

// parseLevel конвертирует строку уровня в slog.Level
func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// ValidLevel сообщает, поддерживается ли уровень логирования
func ValidLevel(level string) bool {
	_, ok := parseLevel(level)
	return ok
}

// Debug логирует сообщение на уровне debug
func (l *Logger) Debug(msg string, fields ...Field) {
	l.slog.Debug(msg, l.fieldsToAny(fields...)...)
}

// Info логирует сообщение на уровне info
func (l *Logger) Info(msg string, fields ...Field) {
	l.slog.Info(msg, l.fieldsToAny(fields...)...)
}

// Warn логирует сообщение на уровне warn
func (l *Logger) Warn(msg string, fields ...Field) {
	l.slog.Warn(msg, l.fieldsToAny(fields...)...)
}

// Error логирует сообщение на уровне error с ошибкой
func (l *Logger) Error(msg string, err error, fields ...Field) {
	allFields := append([]Field{{Key: "error", Value: err}}, fields...)
	l.slog.Error(msg, l.fieldsToAny(allFields...)...)
}

// InfoCtx логирует сообщение с контекстом на уровне info
func (l *Logger) InfoCtx(ctx context.Context, msg string, fields ...Field) {
	l.slog.InfoContext(ctx, msg, l.fieldsToAny(fields...)...)
}

// ErrorCtx логирует сообщение с контекстом на уровне error с ошибкой
func (l *Logger) ErrorCtx(ctx context.Context, msg string, err error, fields ...Field) {
	allFields := append([]Field{{Key: "error", Value: err}}, fields...)
	l.slog.ErrorContext(ctx, msg, l.fieldsToAny(allFields...)...)
}

// fieldsToAny конвертирует срез Field в пары ключ-значение для slog
func (l *Logger) fieldsToAny(fields ...Field) []any {
	result := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		result = append(result, f.Key, f.Value)
	}
	return result
}

// With возвращает новый logger с добавленными полями
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{
		slog: l.slog.With(l.fieldsToAny(fields...)...),
	}
}

// StdLogger возвращает стандартный logger для совместимости
func (l *Logger) StdLogger() *slog.Logger {
	return l.slog
}

// SetDefault устанавливает стандартный logger
func SetDefault(l *Logger) {
	slog.SetDefault(l.slog)
}
