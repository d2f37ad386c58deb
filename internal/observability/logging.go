// Package observability provides structured logging for seeding runs.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/mapseed/internal/config"
)

// NewLogger creates a structured logger from the given logging configuration.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// Progress lines go to stderr so stdout stays free for the run report.
	zapCfg.OutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// RunLogger scopes logger to one seeding run.
//
// Postcondition: Every entry written through the result carries run_id and campaign_id.
func RunLogger(logger *zap.Logger, runID, campaignID string) *zap.Logger {
	return logger.With(zap.String("run_id", runID), zap.String("campaign_id", campaignID))
}

// MapLogger scopes logger to one map within a run.
func MapLogger(logger *zap.Logger, mapSpecID, phase string) *zap.Logger {
	return logger.With(zap.String("map_spec_id", mapSpecID), zap.String("phase", phase))
}
