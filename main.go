package main

import (
	"log/slog"
	"os"

	"hermannm.dev/devlog"
	"hermannm.dev/druidquery/config"
)

func main() {
	setUpLogger(false, slog.LevelInfo)

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// Uses devlog's human-readable output in development, and JSON logs in production.
func setUpLogger(isProduction bool, level slog.Level) {
	var handler slog.Handler
	if isProduction {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = devlog.NewHandler(os.Stdout, &devlog.Options{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func setUpLoggerFromConfig(conf config.Config) {
	level := slog.LevelInfo
	if conf.Druid.Debug {
		level = slog.LevelDebug
	}
	setUpLogger(conf.IsProduction, level)
}
