package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	app "github.com/openchess/chessboard-backend/internal"
	"github.com/openchess/chessboard-backend/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the configuration file")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	logger := newLogger(conf.LogLevel)

	if err := app.RunApp(logger, conf); err != nil {
		fmt.Fprintf(os.Stderr, "app run failed: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level

	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
