package configure

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initLogging replaces the global zap logger. Debug and trace levels use the
// console encoder, everything else logs json.
func initLogging(level string) {
	var cfg zap.Config

	switch level {
	case "debug", "trace":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.SetLevel(zap.InfoLevel)
	}
	if level == "trace" {
		lvl.SetLevel(zap.DebugLevel)
	}
	cfg.Level = lvl

	logger, err := cfg.Build()
	if err != nil {
		zap.S().Fatalw("failed to build logger",
			"error", err,
		)
	}

	zap.ReplaceGlobals(logger)
}
