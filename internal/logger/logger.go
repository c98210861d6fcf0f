package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global SugaredLogger instance.
// Initialized with a no-op logger until Initialize is called.
var Log *zap.SugaredLogger = zap.NewNop().Sugar()

// Rotation limits for the optional log file.
const (
	fileMaxSizeMB  = 100
	fileMaxBackups = 10
	fileMaxAgeDays = 30
)

// Initialize sets up the global logger with the given log level.
// When file is not empty, records are also written to a size-rotated file.
func Initialize(level string, file string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	if file != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			LocalTime:  true,
		})
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), writer, cfg.Level)
		logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	Log = logger.Sugar()
	return nil
}
