package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/avfs/avfs"
	"github.com/avfs/avfs/vfs/osfs"
	"go.uber.org/zap"

	"github.com/thecroxdevil/iptv-tools/internal/config"
	"github.com/thecroxdevil/iptv-tools/internal/history"
	"github.com/thecroxdevil/iptv-tools/internal/logging"
	"github.com/thecroxdevil/iptv-tools/internal/notify"
	"github.com/thecroxdevil/iptv-tools/internal/playlist"
	"github.com/thecroxdevil/iptv-tools/internal/probe"
	"github.com/thecroxdevil/iptv-tools/internal/report"
	"github.com/thecroxdevil/iptv-tools/internal/runner"
)

func main() {
	os.Exit(run(os.Args[1:], osfs.New(), os.Stdout))
}

func run(args []string, fsys avfs.VFS, stdout io.Writer) int {
	cfg, err := config.ParseClean(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}

	logger, err := logging.NewLogger(cfg.LogDir, "m3uclean", cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		return 1
	}
	defer logger.Sync()

	fmt.Fprintln(stdout, "M3U Playlist Cleaner")
	fmt.Fprintln(stdout, "===================")
	fmt.Fprintf(stdout, "Input file: %s\n", cfg.InputPath)
	fmt.Fprintf(stdout, "Output file: %s\n", cfg.OutputPath)
	fmt.Fprintf(stdout, "Report file: %s\n", cfg.ReportPath)
	fmt.Fprintf(stdout, "Timeout: %ds\n", int(cfg.Timeout.Seconds()))
	fmt.Fprintf(stdout, "Workers: %d\n", cfg.Workers)
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Parsing M3U file...")
	entries, err := playlist.Parse(fsys, cfg.InputPath)
	if err != nil {
		logger.Error("parse_failed", zap.String("input", cfg.InputPath), zap.Error(err))
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No channels found or error parsing file!")
		return 1
	}
	fmt.Fprintf(stdout, "Found %d channels to test\n\n", len(entries))

	transport := probe.InsecureTransport()
	if cfg.VerifyTLS {
		transport = probe.VerifiedTransport()
	}
	checker := probe.NewStreamChecker(cfg.Timeout, transport)
	r := runner.New(logger, checker, cfg.Workers, cfg.Timeout, stdout)

	ctx := context.Background()

	// Previous verdicts must be read before this run is recorded.
	var store *history.Store
	var prev map[string]history.Verdict
	if cfg.HistoryDB != "" {
		store, err = history.Open(ctx, cfg.HistoryDB)
		if err != nil {
			fmt.Fprintf(stdout, "Warning: run history disabled: %v\n", err)
			logger.Warn("history_open_failed", zap.Error(err))
			store = nil
		} else {
			defer store.Close()
			prev, err = store.LastVerdicts(ctx)
			if err != nil {
				logger.Warn("history_read_failed", zap.Error(err))
			}
		}
	}

	sum := r.Run(ctx, entries)

	total := sum.Total()
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, strings.Repeat("=", 50))
	fmt.Fprintln(stdout, "CLEANING SUMMARY")
	fmt.Fprintln(stdout, strings.Repeat("=", 50))
	fmt.Fprintf(stdout, "Total channels tested: %d\n", total)
	fmt.Fprintf(stdout, "Working channels: %d (%.1f%%)\n", len(sum.Working), percent(len(sum.Working), total))
	fmt.Fprintf(stdout, "Dead channels: %d (%.1f%%)\n", len(sum.Dead), percent(len(sum.Dead), total))
	fmt.Fprintf(stdout, "Time taken: %.1f seconds\n", sum.Elapsed.Seconds())
	fmt.Fprintln(stdout)

	if len(sum.Working) > 0 {
		if err := report.WriteCleanedPlaylist(fsys, cfg.OutputPath, sum.Working); err != nil {
			fmt.Fprintf(stdout, "Error saving cleaned playlist: %v\n", err)
			logger.Error("playlist_write_failed", zap.Error(err))
		} else {
			fmt.Fprintf(stdout, "\nCleaned playlist saved to: %s\n", cfg.OutputPath)
			fmt.Fprintf(stdout, "✓ Cleaned playlist ready: %s\n", cfg.OutputPath)
		}
	} else {
		fmt.Fprintln(stdout, "⚠ No working channels found!")
	}

	if len(sum.Dead) > 0 {
		if err := report.WriteDeadReport(fsys, cfg.ReportPath, sum.Dead); err != nil {
			fmt.Fprintf(stdout, "Error saving dead links report: %v\n", err)
			logger.Error("report_write_failed", zap.Error(err))
		} else {
			fmt.Fprintf(stdout, "Dead links report saved to: %s\n", cfg.ReportPath)
			fmt.Fprintf(stdout, "✓ Dead links report created: %s\n", cfg.ReportPath)
		}
	}

	wh := notify.NewWebhook(cfg.WebhookURL)

	if store != nil {
		rec := history.RunRecord{
			InputPath: cfg.InputPath,
			Total:     total,
			Working:   len(sum.Working),
			Dead:      len(sum.Dead),
		}
		all := make([]runner.Result, 0, total)
		all = append(all, sum.Working...)
		all = append(all, sum.Dead...)
		if err := store.RecordRun(ctx, rec, all); err != nil {
			logger.Warn("history_write_failed", zap.Error(err))
		}

		if newly := history.NewlyDead(prev, sum.Dead); len(newly) > 0 {
			fmt.Fprintf(stdout, "Newly dead since last run: %d\n", len(newly))
			for _, res := range newly {
				logger.Info("channel_regressed",
					zap.String("name", res.Entry.Name()),
					zap.String("url", res.Entry.URL),
					zap.String("reason", string(res.Outcome.Reason)),
				)
			}
			if wh != nil {
				title, text := notify.Regression(newly)
				if err := wh.Send(ctx, title, text); err != nil {
					logger.Warn("webhook_failed", zap.Error(err))
				}
			}
		}
	}

	if wh != nil {
		title, text := notify.RunSummary(cfg.InputPath, len(sum.Working), len(sum.Dead), sum.Elapsed)
		if err := wh.Send(ctx, title, text); err != nil {
			logger.Warn("webhook_failed", zap.Error(err))
		}
	}

	return 0
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
