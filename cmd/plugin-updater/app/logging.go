package app

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the logr sink of the CLI. Debug mode uses the zap
// development encoder and enables verbose (V(1)) messages. level is one of
// debug, info, warn or error and overrides the default level.
func newLogger(debug bool, level string) (logr.Logger, func(), error) {
	zapCfg := zap.NewProductionConfig()
	if debug {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.DisableStacktrace = !debug

	if level != "" {
		lvl, err := parseLevel(level)
		if err != nil {
			return logr.Discard(), nil, err
		}
		zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return logr.Discard(), nil, fmt.Errorf("failed to build logger: %w", err)
	}
	sync := func() {
		_ = zapLogger.Sync()
	}
	return zapr.NewLogger(zapLogger), sync, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
}
