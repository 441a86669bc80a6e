package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	profileform "github.com/goliatone/go-profileform"
	"github.com/goliatone/go-profileform/internal/config"
	"github.com/goliatone/go-profileform/internal/logging"
	"github.com/goliatone/go-profileform/internal/server"
	"github.com/goliatone/go-profileform/pkg/render"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	envFile := flag.String("env", ".env", "dotenv file loaded before reading the environment")
	output := flag.String("render", "", "write the initial page to this file and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.New(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *output != "" {
		if err := renderPage(ctx, cfg, *output); err != nil {
			log.Fatalf("Failed to render page: %v", err)
		}
		fmt.Printf("Page written to %s\n", *output)
		return
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	rt, err := server.FromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("close store", slog.String("error", err.Error()))
		}
	}()

	if rt.Watcher != nil {
		go func() {
			if err := rt.Watcher.Run(ctx); err != nil {
				logger.Warn("template watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	return rt.Server.Run(ctx)
}

func renderPage(ctx context.Context, cfg config.Config, path string) error {
	opts := []render.Option{render.WithLocation(cfg.Location())}
	if cfg.Page.TemplatesDir != "" {
		opts = append(opts, render.WithTemplatesDir(cfg.Page.TemplatesDir))
	}
	if cfg.Page.Title != "" {
		opts = append(opts, render.WithTitle(cfg.Page.Title))
	}
	html, err := profileform.GenerateHTML(ctx, opts...)
	if err != nil {
		return err
	}
	return os.WriteFile(path, html, 0o644)
}
