package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"InterviewCoach/internal/coach"
	"InterviewCoach/internal/config"
)

func main() {
	cfg := config.Default()

	flag.StringVar(&cfg.APIBaseURL, "api-url", cfg.APIBaseURL, "Interview backend base URL")
	flag.StringVar(&cfg.Token, "token", cfg.Token, "Bearer token (overrides the saved login)")
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Where /login saves the access token")
	flag.StringVar(&cfg.DraftFile, "draft", cfg.DraftFile, "YAML file with interview settings to preload")
	flag.StringVar(&cfg.ArchivePath, "archive", cfg.ArchivePath, "SQLite file for completed interview reports")
	flag.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Directory for logs, traces and metrics")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	flag.BoolVar(&cfg.NoTelemetry, "no-telemetry", cfg.NoTelemetry, "Disable trace and metric export")
	flag.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP request timeout")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := coach.New(cfg, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize interview coach: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
