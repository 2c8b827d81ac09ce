package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/avfs/avfs"
	"github.com/avfs/avfs/vfs/osfs"
	"go.uber.org/zap"

	"github.com/thecroxdevil/iptv-tools/internal/config"
	"github.com/thecroxdevil/iptv-tools/internal/epg"
	"github.com/thecroxdevil/iptv-tools/internal/logging"
	"github.com/thecroxdevil/iptv-tools/internal/xmltv"
)

const generatorURL = "https://github.com/thecroxdevil/jellyfin-setup"

func main() {
	os.Exit(run(os.Args[1:], osfs.New(), os.Stdout))
}

func run(args []string, fsys avfs.VFS, stdout io.Writer) int {
	cfg, err := config.ParseScrape(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}

	logger, err := logging.NewLogger(cfg.LogDir, "epgscrape", cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		return 1
	}
	defer logger.Sync()

	fmt.Fprintln(stdout, "Jellyfin EPG Scraper")
	fmt.Fprintln(stdout, "===================")
	fmt.Fprintf(stdout, "Source URL: %s\n", cfg.SourceURL)
	fmt.Fprintf(stdout, "Output file: %s\n", cfg.OutputPath)
	fmt.Fprintf(stdout, "Days ahead: %d\n", cfg.DaysAhead)
	fmt.Fprintln(stdout)

	fail := func() int {
		fmt.Fprintln(stdout, "\n✗ EPG processing failed")
		return 1
	}

	fmt.Fprintf(stdout, "Processing EPG source: %s\n", cfg.SourceURL)
	logger.Info("scrape_started",
		zap.String("url", cfg.SourceURL),
		zap.Int("days_ahead", cfg.DaysAhead),
		zap.String("output", cfg.OutputPath),
	)

	ctx := context.Background()
	scraper := epg.NewScraper(cfg.Timeout, logger)

	raw, err := scraper.Fetch(ctx, cfg.SourceURL)
	if err != nil {
		fmt.Fprintf(stdout, "Error fetching EPG: %v\n", err)
		logger.Error("fetch_failed", zap.String("url", cfg.SourceURL), zap.Error(err))
		return fail()
	}

	doc, err := xmltv.Parse(bytes.NewReader(raw))
	if err != nil {
		fmt.Fprintf(stdout, "XML parsing error: %v\n", err)
		logger.Error("parse_failed", zap.Error(err))
		fmt.Fprintln(stdout, "No valid EPG data found")
		return fail()
	}
	if len(doc.Channels) == 0 || len(doc.Programmes) == 0 {
		fmt.Fprintln(stdout, "No valid EPG data found")
		logger.Warn("no_epg_data",
			zap.Int("channels", len(doc.Channels)),
			zap.Int("programmes", len(doc.Programmes)),
		)
		return fail()
	}
	fmt.Fprintf(stdout, "Found %d channels and %d programmes\n", len(doc.Channels), len(doc.Programmes))

	doc.Programmes = epg.FilterProgrammes(doc.Programmes, time.Now().UTC(), cfg.DaysAhead)
	fmt.Fprintf(stdout, "Filtered to %d upcoming programmes\n", len(doc.Programmes))

	clean := epg.Clean(doc)
	fmt.Fprintf(stdout, "Cleaned to %d active channels\n", len(clean.Channels))

	clean.GeneratorName = "Jellyfin EPG Scraper"
	clean.GeneratorURL = generatorURL
	if err := clean.WriteFile(fsys, cfg.OutputPath); err != nil {
		fmt.Fprintf(stdout, "Error generating XMLTV file: %v\n", err)
		logger.Error("write_failed", zap.String("output", cfg.OutputPath), zap.Error(err))
		return fail()
	}
	fmt.Fprintf(stdout, "EPG saved to: %s\n", cfg.OutputPath)
	logger.Info("scrape_finished",
		zap.Int("channels", len(clean.Channels)),
		zap.Int("programmes", len(clean.Programmes)),
		zap.String("output", cfg.OutputPath),
	)

	fmt.Fprintln(stdout, "\n✓ EPG processing completed successfully")
	return 0
}
