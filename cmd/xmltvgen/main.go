package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/avfs/avfs"
	"github.com/avfs/avfs/vfs/osfs"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/thecroxdevil/iptv-tools/internal/config"
	"github.com/thecroxdevil/iptv-tools/internal/guide"
	"github.com/thecroxdevil/iptv-tools/internal/logging"
)

const generatorURL = "https://github.com/thecroxdevil/jellyfin-setup"

func main() {
	os.Exit(run(os.Args[1:], osfs.New(), os.Stdout))
}

func run(args []string, fsys avfs.VFS, stdout io.Writer) int {
	cfg, err := config.ParseGenerate(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}

	if !cfg.HasSource() {
		fmt.Fprintln(stdout, "Error: Please specify input source (--json, --csv, or --demo)")
		return 1
	}

	logger, err := logging.NewLogger(cfg.LogDir, "xmltvgen", cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		return 1
	}
	defer logger.Sync()

	fmt.Fprintln(stdout, "Jellyfin XMLTV Generator")
	fmt.Fprintln(stdout, "=======================")
	logger.Info("generate_started",
		zap.String("json", cfg.JSONPath),
		zap.String("csv", cfg.CSVPath),
		zap.Bool("demo", cfg.Demo),
		zap.String("output", cfg.OutputPath),
	)

	b := guide.NewBuilder(logger)

	// Every selected source is attempted before the load verdict.
	ok := true
	if cfg.JSONPath != "" {
		fmt.Fprintf(stdout, "Loading from JSON: %s\n", cfg.JSONPath)
		if err := b.LoadJSON(fsys, cfg.JSONPath); err != nil {
			fmt.Fprintf(stdout, "Error loading JSON file: %v\n", err)
			logger.Error("json_load_failed", zap.String("path", cfg.JSONPath), zap.Error(err))
			ok = false
		}
	}
	if cfg.CSVPath != "" {
		fmt.Fprintf(stdout, "Loading from CSV: %s\n", cfg.CSVPath)
		if err := b.LoadCSV(fsys, cfg.CSVPath); err != nil {
			fmt.Fprintf(stdout, "Error loading CSV file: %v\n", err)
			logger.Error("csv_load_failed", zap.String("path", cfg.CSVPath), zap.Error(err))
			ok = false
		}
	}
	if cfg.Demo {
		fmt.Fprintf(stdout, "Generating demo data: %d channels, %d programmes each\n",
			cfg.DemoChannels, cfg.DemoProgrammes)
		b.Demo(time.Now().UTC(), cfg.DemoChannels, cfg.DemoProgrammes)
	}
	if !ok {
		fmt.Fprintln(stdout, "Failed to load input data")
		return 1
	}

	fmt.Fprintf(stdout, "Generating XMLTV file: %s\n", cfg.OutputPath)

	if err := b.Validate(); err != nil {
		faults := multierr.Errors(err)
		fmt.Fprintln(stdout, "EPG Validation Errors:")
		for _, fault := range faults {
			fmt.Fprintf(stdout, "  - %v\n", fault)
		}
		fmt.Fprintln(stdout, "EPG data validation failed, generating anyway...")
		logger.Warn("validation_failed", zap.Int("faults", len(faults)))
	}

	doc := b.Document()
	doc.GeneratorName = "Jellyfin XMLTV Generator"
	doc.GeneratorURL = generatorURL
	if err := doc.WriteFile(fsys, cfg.OutputPath); err != nil {
		fmt.Fprintf(stdout, "Error generating XMLTV file: %v\n", err)
		logger.Error("write_failed", zap.String("output", cfg.OutputPath), zap.Error(err))
		fmt.Fprintln(stdout, "\n✗ Failed to generate XMLTV file")
		return 1
	}

	logger.Info("generate_finished",
		zap.Int("channels", len(doc.Channels)),
		zap.Int("programmes", len(doc.Programmes)),
		zap.String("output", cfg.OutputPath),
	)
	fmt.Fprintf(stdout, "\n✓ XMLTV file generated successfully: %s\n", cfg.OutputPath)
	return 0
}
