package runner

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thecroxdevil/iptv-tools/internal/playlist"
	"github.com/thecroxdevil/iptv-tools/internal/probe"
)

// Result pairs a playlist entry with its probe outcome.
type Result struct {
	Entry   playlist.Entry
	Outcome probe.Outcome
}

// Summary aggregates one validation run. Working and Dead together
// hold every probed entry exactly once, in completion order.
type Summary struct {
	Working []Result
	Dead    []Result
	Elapsed time.Duration
}

func (s Summary) Total() int { return len(s.Working) + len(s.Dead) }

// Runner fans playlist entries out to a fixed pool of probe workers
// and drains their outcomes.
type Runner struct {
	Logger   *zap.Logger
	Checker  probe.Checker
	Workers  int
	Timeout  time.Duration
	Progress io.Writer
}

func New(
	logger *zap.Logger,
	checker probe.Checker,
	workers int,
	timeout time.Duration,
	progress io.Writer,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Runner{
		Logger:   logger,
		Checker:  checker,
		Workers:  workers,
		Timeout:  timeout,
		Progress: progress,
	}
}

// Run probes every entry and partitions the results. It blocks until
// the last probe has finished; there is no run-level cancellation,
// only the per-probe timeout.
func (r *Runner) Run(ctx context.Context, entries []playlist.Entry) Summary {
	start := time.Now()
	total := len(entries)

	fmt.Fprintf(r.Progress, "Testing %d channels with %d workers...\n", total, r.Workers)
	r.Logger.Info("run_started",
		zap.Int("channels", total),
		zap.Int("workers", r.Workers),
		zap.Duration("timeout", r.Timeout),
	)

	jobs := make(chan playlist.Entry)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < r.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range jobs {
				results <- Result{Entry: e, Outcome: r.probeOne(ctx, e)}
			}
		}()
	}

	go func() {
		for _, e := range entries {
			jobs <- e
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Single consumer: the partitions are touched by this goroutine
	// only, so no locking is needed.
	var sum Summary
	done := 0
	for res := range results {
		done++
		name := res.Entry.Name()
		if res.Outcome.Working {
			sum.Working = append(sum.Working, res)
			fmt.Fprintf(r.Progress, "[%d/%d] ✓ WORKING: %s\n", done, total, name)
		} else {
			sum.Dead = append(sum.Dead, res)
			fmt.Fprintf(r.Progress, "[%d/%d] ✗ DEAD: %s\n", done, total, name)
		}
		r.Logger.Debug("channel_checked",
			zap.String("name", name),
			zap.String("url", res.Entry.URL),
			zap.Bool("working", res.Outcome.Working),
			zap.String("reason", string(res.Outcome.Reason)),
			zap.Int("status", res.Outcome.StatusCode),
			zap.Float64("latency_ms", res.Outcome.LatencyMS),
		)
	}

	sum.Elapsed = time.Since(start)
	r.Logger.Info("run_finished",
		zap.Int("working", len(sum.Working)),
		zap.Int("dead", len(sum.Dead)),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return sum
}

// probeOne applies the per-probe deadline and maps a checker panic to
// a dead verdict.
func (r *Runner) probeOne(ctx context.Context, e playlist.Entry) (out probe.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Logger.Warn("probe_panic",
				zap.String("url", e.URL),
				zap.Any("panic", rec),
			)
			out = probe.Outcome{
				Reason:  probe.ReasonTransportError,
				Message: fmt.Sprintf("probe panic: %v", rec),
			}
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	return r.Checker.Check(cctx, e.URL)
}
