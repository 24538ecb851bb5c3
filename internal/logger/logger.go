package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

var log *slog.Logger

// FileOptions - ротация файла логов (пустой Filename отключает запись в файл)
type FileOptions struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init инициализирует глобальный логгер
// env: "development" или "production"
func Init(env string) {
	InitWithFile(env, FileOptions{})
}

// InitWithFile дублирует логи в файл с ротацией через lumberjack
func InitWithFile(env string, file FileOptions) {
	var out io.Writer = os.Stdout
	if file.Filename != "" {
		out = io.MultiWriter(os.Stdout, newRotatingWriter(file))
	}

	log = slog.New(newHandler(env, out))
	slog.SetDefault(log)
}

func newHandler(env string, out io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}

	if env == "development" {
		opts.Level = slog.LevelDebug
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

func newRotatingWriter(file FileOptions) *lumberjack.Logger {
	w := &lumberjack.Logger{
		Filename:   file.Filename,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
		Compress:   true,
	}
	if w.MaxSize == 0 {
		w.MaxSize = 100
	}
	if w.MaxBackups == 0 {
		w.MaxBackups = 3
	}
	if w.MaxAge == 0 {
		w.MaxAge = 28
	}
	return w
}

// GetLogger возвращает глобальный логгер
func GetLogger() *slog.Logger {
	if log == nil {
		Init("development")
	}
	return log
}

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// Fatal логирует fatal ошибку и завершает программу
func Fatal(msg string, args ...any) {
	GetLogger().Error(msg, args...)
	os.Exit(1)
}

// With создает новый логгер с дополнительными полями
func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

// WorkerLog логирует операцию фонового обработчика
func WorkerLog(worker, operation string, err error, args ...any) {
	fields := append([]any{
		"worker", worker,
		"operation", operation,
	}, args...)

	if err != nil {
		fields = append(fields, "error", err.Error())
		GetLogger().Error("worker operation failed", fields...)
	} else {
		GetLogger().Debug("worker operation completed", fields...)
	}
}
