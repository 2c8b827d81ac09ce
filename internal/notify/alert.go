package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/thecroxdevil/iptv-tools/internal/runner"
)

// maxListed caps how many channels a regression alert spells out.
const maxListed = 20

// RunSummary composes the completion message for a validation run.
func RunSummary(input string, working, dead int, elapsed time.Duration) (title, text string) {
	total := working + dead
	pct := func(part int) float64 {
		if total == 0 {
			return 0
		}
		return float64(part) / float64(total) * 100
	}

	title = "M3U clean finished"
	text = fmt.Sprintf("Input: %s\nWorking: %d/%d (%.1f%%)\nDead: %d (%.1f%%)\nTime: %.1fs",
		input, working, total, pct(working), dead, pct(dead), elapsed.Seconds())
	return title, text
}

// Regression composes the alert for channels that worked on the
// previous run and are dead now. Each channel gets a block of
// name, URL, HTTP status, latency, and reason; past maxListed the rest
// are summarized by a count.
func Regression(newly []runner.Result) (title, text string) {
	if len(newly) == 1 {
		title = "🔴 1 channel went DOWN"
	} else {
		title = fmt.Sprintf("🔴 %d channels went DOWN", len(newly))
	}

	listed := newly
	if len(listed) > maxListed {
		listed = listed[:maxListed]
	}

	blocks := make([]string, 0, len(listed)+1)
	for _, res := range listed {
		httpTxt := "n/a"
		if res.Outcome.StatusCode != 0 {
			httpTxt = fmt.Sprintf("%d", res.Outcome.StatusCode)
		}
		blocks = append(blocks, fmt.Sprintf("%s\nURL: %s\nHTTP: %s\nLatency: %.0f ms\nReason: %s",
			res.Entry.Name(), res.Entry.URL, httpTxt, res.Outcome.LatencyMS, res.Outcome.Reason))
	}
	if rest := len(newly) - len(listed); rest > 0 {
		blocks = append(blocks, fmt.Sprintf("...and %d more", rest))
	}

	return title, strings.Join(blocks, "\n\n")
}
