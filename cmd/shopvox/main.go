package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"
	log "log/slog"

	"shopvox/internal/assistant"
	"shopvox/internal/config"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	configFile := cli.StringP("config", "c", "", "YAML config file")
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "", "Log level (debug|info|warn|error)")
	source := cli.StringP("input", "i", "", "Input source (voice|text|socket|bus|file)")
	files := cli.StringSlice("files", nil, "Audio files for --input file")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS5 proxy address")
	cli.Parse()

	if err := config.LoadEnv(*envFile); err != nil {
		log.Error("Failed to load env file", "path", *envFile, "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	if cli.CommandLine.Changed("log") {
		cfg.Log.Level = *logLevel
	}
	if cli.CommandLine.Changed("input") {
		cfg.Input.Source = *source
	}
	if cli.CommandLine.Changed("files") {
		cfg.Input.Files = *files
		if !cli.CommandLine.Changed("input") {
			cfg.Input.Source = config.SourceFile
		}
	}
	if cli.CommandLine.Changed("proxy") {
		cfg.Network.Proxy = *proxyAddr
	}

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[cfg.Log.Level],
	})))

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	os.Exit(run(cfg))
}

func run(cfg *config.Config) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Booting up", "input", cfg.Input.Source, "search", cfg.Search.Provider)

	svc, err := build(ctx, cfg, log.Default())
	if err != nil {
		log.Error("Startup failed", "err", err)
		return 1
	}
	defer svc.Close()

	log.Info("Boot up - successful")

	a := assistant.New(assistant.Deps{
		Input:   svc.input,
		Search:  svc.search,
		Summary: svc.summary,
		Output:  svc.output,
		Logger:  log.Default(),
	})

	if err := a.Run(ctx); err != nil {
		log.Error("Assistant stopped", "err", err)
		return 1
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		log.Info("Interrupted")
	}
	return 0
}
