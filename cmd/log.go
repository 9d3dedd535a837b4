package cmd

import (
	"log/slog"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// setupLogging routes the default slog logger to zap. Logs go to stderr,
// warnings and above unless verbose.
func setupLogging(verbose bool) (func(), error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	level := slog.LevelWarn
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		level = slog.LevelDebug
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slogzap.Option{Level: level, Logger: logger}.NewZapHandler()))
	return func() { _ = logger.Sync() }, nil
}
