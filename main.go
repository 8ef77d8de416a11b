package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atomicprogress/atomgame/atomgame"
	"github.com/atomicprogress/atomgame/atomgame/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting AtomGame server",
		slog.String("version", version),
		slog.String("commit", commit))

	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := atomgame.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.SetDefault(slog.New(logger.NewHandlerWithLevel(cfg.Log.Level)))

	app := atomgame.New(*cfg, version, commit)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := app.Setup(ctx); err != nil {
		cancel()
		slog.Error("Failed to set up application",
			slog.String("type", "sys"),
			slog.Any("error", err))
		os.Exit(-1)
	}
	cancel()

	app.Start()

	slog.Info("Server is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s

	slog.Info("Shutting down...")
	app.Shutdown()
}
