package logging

import (
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZap builds a *zap.Logger from the level/format pair loaded by
// pkg/config (e.g. "info"/"json", "debug"/"console"), defaulting to a
// production JSON logger on any unrecognized value rather than failing
// startup over a typo in a config file.
func NewZap(level, format string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	}

	return cfg.Build()
}

// ToLogr bridges a *zap.Logger into a logr.Logger via go-logr/zapr, so
// libraries that speak the logr interface (OpenTelemetry's internal error
// handler, among others) share the same structured sink as the rest of the
// service instead of falling back to stderr.
func ToLogr(z *zap.Logger) logr.Logger {
	return zapr.NewLogger(z)
}
