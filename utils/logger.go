package utils

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   *zap.Logger
	loggerMu sync.Mutex
)

// InitLogger builds the process-wide logger. Production gets JSON output,
// everything else a colored console encoder.
func InitLogger(env string) error {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	built, err := config.Build()
	if err != nil {
		return err
	}

	loggerMu.Lock()
	logger = built
	loggerMu.Unlock()

	zap.ReplaceGlobals(built)
	return nil
}

// GetLogger returns the process-wide logger
func GetLogger() *zap.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if logger != nil {
		_ = logger.Sync()
	}
}
