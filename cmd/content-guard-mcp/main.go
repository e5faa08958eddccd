package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/content-guard-mcp/internal/config"
	"github.com/ironsheep/content-guard-mcp/internal/logging"
	"github.com/ironsheep/content-guard-mcp/internal/moderation"
	"github.com/ironsheep/content-guard-mcp/internal/server"
	"github.com/ironsheep/content-guard-mcp/internal/video"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	parser := argparse.NewParser("content-guard-mcp", "MCP server for nudity moderation and redaction of images and videos")
	showVersion := parser.Flag("v", "version", &argparse.Options{Help: "Print version information"})
	configFile := parser.String("c", "config", &argparse.Options{Help: "Path to a .env configuration file"})
	logLevel := parser.String("", "log-level", &argparse.Options{Help: "Log level (trace, debug, info, warn, error). Overrides CONTENT_GUARD_LOG_LEVEL"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(2)
	}

	if *showVersion {
		fmt.Printf("content-guard-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	// Logs go to stderr; stdout is for the MCP protocol.
	logger, closer, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Server stopped")
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logrus.NewEntry(logger)
	log.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Info("Content Guard MCP server starting")

	persons, regions, err := buildDetectors(cfg, log)
	if err != nil {
		return err
	}

	pipeline, err := moderation.New(persons, regions, moderation.OptionsFromConfig(cfg), log)
	if err != nil {
		return err
	}

	ff, err := video.NewFFmpeg(ctx, cfg.Video.FFmpegPath, cfg.Video.FFprobePath, log)
	if err != nil {
		log.WithError(err).Warn("Video tools disabled")
		ff = nil
	}

	server.Version = Version
	srv := server.New(pipeline, server.Options{
		FFmpeg:  ff,
		TempDir: cfg.Video.TempDir,
		CRF:     cfg.Video.CRF,
		Logger:  logger,
	})
	return srv.Run(ctx)
}
