package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// fileWriter returns a rotating WriteSyncer for config.File.
func fileWriter(config Config) zapcore.WriteSyncer {
	if dir := filepath.Dir(config.File); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   config.File,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
		LocalTime:  true,
	})
}

// getWriteSyncers returns the sinks enabled by config. With neither the
// terminal nor a file enabled, output is discarded.
func getWriteSyncers(config Config) []zapcore.WriteSyncer {
	var sinks []zapcore.WriteSyncer
	if config.LogInTerminal {
		sinks = append(sinks, zapcore.Lock(os.Stderr))
	}
	if config.File != "" {
		sinks = append(sinks, fileWriter(config))
	}
	return sinks
}
