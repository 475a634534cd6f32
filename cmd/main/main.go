package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/oshanjarow/fellowship-tracker/pkg/digest"
	"github.com/oshanjarow/fellowship-tracker/pkg/scraper"
	"github.com/oshanjarow/fellowship-tracker/pkg/site"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const usage = `fellowship-tracker - scrape, build, and serve the fellowship & grant tracker

Usage:
  tracker build    render the site from data/ into _site/
  tracker scrape   run the scraper pipeline and update data/
  tracker serve    build, then serve _site/ and rebuild on changes
  tracker digest   email the biweekly digest
  tracker version  print version information
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	if command == "version" {
		fmt.Printf("fellowship-tracker %s (%s, built %s)\n", Version, Commit, BuildDate)
		return
	}

	config, err := LoadConfig("./config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(config.Server.LogLevel)

	switch command {
	case "build":
		err = runBuild(logger, config)
	case "scrape":
		err = runScrape(logger, config)
	case "serve":
		err = runServe(logger, config)
	case "digest":
		err = runDigest(logger, config)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func runBuild(logger *slog.Logger, config *Config) error {
	return site.NewBuilder(logger, config.Site).Build()
}

func runScrape(logger *slog.Logger, config *Config) error {
	if err := os.MkdirAll(config.Scraper.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := initDB(config.Scraper.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if err = scraper.SetupSchema(db); err != nil {
		return fmt.Errorf("failed to setup tracker schema: %w", err)
	}
	store, err := scraper.NewStore(db, logger)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	client := &http.Client{Timeout: time.Duration(config.Scraper.RequestTimeoutSec) * time.Second}
	sources := scraper.DefaultSources(client, logger)
	sources = append(sources, scraper.NewDiscoverySource(
		scraper.DefaultDiscoverySeeds(), config.Scraper.DataDir, store, client, logger))
	runner := scraper.NewRunner(logger, config.Scraper, store, sources)

	_, err = runner.Run(context.Background())
	return err
}

func runDigest(logger *slog.Logger, config *Config) error {
	// Credentials live in .env, never in config.json.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	creds, err := digest.CredentialsFromEnv()
	if err != nil {
		return err
	}
	return digest.NewDigest(logger, config.Digest).Run(context.Background(), creds)
}
