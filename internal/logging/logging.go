// Package logging builds the application's zap logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger flavour.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is "json" (production encoder) or "console" (development
	// encoder).
	Format string
	// OutputPath is a file path, "stderr" or "stdout". Empty means stderr.
	OutputPath string
}

// Setup builds a logger tagged with the application name and version.
func Setup(cfg Config, appName, appVersion string) (*zap.Logger, error) {
	var zcfg zap.Config
	switch strings.ToLower(cfg.Format) {
	case "console", "text":
		zcfg = zap.NewDevelopmentConfig()
	case "", "json":
		zcfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	if cfg.OutputPath != "" {
		zcfg.OutputPaths = []string{cfg.OutputPath}
		zcfg.ErrorOutputPaths = []string{cfg.OutputPath}
	}

	zcfg.InitialFields = map[string]interface{}{
		"appName":    appName,
		"appVersion": appVersion,
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
