// Package jetlog wraps zap the way daviszhen-plan's call sites expect
// (util.Error(msg, zap.String(...), ...)), giving this module the same
// logging idiom even though its defining file wasn't part of the pack.
package jetlog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	logger *zap.Logger
)

func get() *zap.Logger {
	once.Do(func() {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	})
	return logger
}

// SetLogger overrides the package logger, for tests that want to assert
// on emitted fields or silence output entirely (zap.NewNop()).
func SetLogger(l *zap.Logger) {
	once.Do(func() {})
	logger = l
}

func Error(msg string, fields ...zap.Field) {
	get().Error(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	get().Warn(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	get().Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	get().Debug(msg, fields...)
}
