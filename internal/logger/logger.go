// Package logger provides a package-level structured logger backed by zap.
//
// The terminal belongs to the TUI, so Init routes output to a rotating file.
// Until Init is called every call is discarded.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file created inside the log directory.
const FileName = "console.log"

// Logger is the global logger instance.
var Logger = zap.NewNop().Sugar()

// Init replaces Logger with a JSON logger writing to a rotating file in dir.
// It returns a flush function to call on shutdown.
func Init(dir, level string) (func(), error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, lvl)

	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	Logger = base.Sugar()

	return func() { _ = base.Sync() }, nil
}

// With returns a child logger carrying the given key/value pairs.
func With(args ...any) *zap.SugaredLogger {
	return Logger.With(args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Errorw(msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Infow(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warnw(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debugw(msg, args...)
}
