// Command crawl-bulk-api crawls Bulk API widgets for hotel identifiers piped
// on stdin and prints "Ok: <request>" for every confirmed request.
//
// Example:
//
//	cat hotel_ids.txt | crawl-bulk-api --api_key YOUR_API_KEY --widgets seal tops_flops --languages fr es it
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/bulk-crawler/pkg/client"
	"github.com/Sternrassler/bulk-crawler/pkg/config"
	"github.com/Sternrassler/bulk-crawler/pkg/crawler"
	"github.com/Sternrassler/bulk-crawler/pkg/logging"
	"github.com/Sternrassler/bulk-crawler/pkg/metrics"
	"github.com/spf13/pflag"
)

const commandName = "crawl-bulk-api"

// Exit codes.
const (
	exitOK     = 0
	exitFault  = 1
	exitConfig = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := config.NewFlagSet(commandName)
	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			config.Usage(stderr, commandName, fs)
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		config.Usage(stderr, commandName, fs)
		return exitConfig
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Pretty = cfg.LogPretty
	logCfg.Output = stderr
	logCfg.RunID = logging.NewRunID()
	logging.Setup(logCfg)
	logger := logging.NewLogger("main")

	if cfg.MetricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
				logger.Warn().Err(err).Str("path", cfg.MetricsFile).Msg("Failed to write metrics")
			}
		}()
	}

	bulkClient, err := client.New(cfg.ClientConfig())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create Bulk API client")
		return exitConfig
	}

	crawlerLogger := logging.NewLogger("crawler")
	c, err := crawler.New(bulkClient, crawler.Options{
		Stdout: stdout,
		Logger: &crawlerLogger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create crawler")
		return exitConfig
	}

	ids, readErr := crawler.ReadIdentifiers(stdin)
	if _, err := c.Run(ctx, ids, cfg.Widgets, cfg.Languages); err != nil {
		logger.Error().Err(err).Msg("Crawl aborted")
		return exitFault
	}
	if err := readErr(); err != nil {
		logger.Error().Err(err).Msg("Failed to read identifiers")
		return exitFault
	}

	return exitOK
}
