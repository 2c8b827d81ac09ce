package notify

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/thecroxdevil/iptv-tools/internal/playlist"
	"github.com/thecroxdevil/iptv-tools/internal/probe"
	"github.com/thecroxdevil/iptv-tools/internal/runner"
)

func TestRunSummary(t *testing.T) {
	title, text := RunSummary("tv.m3u", 8, 2, 3200*time.Millisecond)
	if title != "M3U clean finished" {
		t.Fatalf("title: %q", title)
	}
	want := "Input: tv.m3u\nWorking: 8/10 (80.0%)\nDead: 2 (20.0%)\nTime: 3.2s"
	if text != want {
		t.Fatalf("text:\n%s\nwant:\n%s", text, want)
	}
}

func TestRunSummary_EmptyRun(t *testing.T) {
	_, text := RunSummary("tv.m3u", 0, 0, 0)
	if !strings.Contains(text, "Working: 0/0 (0.0%)") {
		t.Fatalf("empty run should not divide by zero: %q", text)
	}
}

func TestRegression(t *testing.T) {
	newly := []runner.Result{
		{
			Entry:   playlist.Entry{Info: "#EXTINF:-1,Alpha", URL: "http://a/1"},
			Outcome: probe.Outcome{Reason: probe.ReasonHTTPStatus, StatusCode: 404, LatencyMS: 212},
		},
		{
			Entry:   playlist.Entry{Info: "#EXTINF:-1,Bravo", URL: "http://b/2"},
			Outcome: probe.Outcome{Reason: probe.ReasonTimeout, LatencyMS: 5000},
		},
	}

	title, text := Regression(newly)
	if title != "🔴 2 channels went DOWN" {
		t.Fatalf("title: %q", title)
	}
	if !strings.Contains(text, "Alpha\nURL: http://a/1\nHTTP: 404\nLatency: 212 ms\nReason: http_status") {
		t.Fatalf("first block missing:\n%s", text)
	}
	if !strings.Contains(text, "Bravo\nURL: http://b/2\nHTTP: n/a\nLatency: 5000 ms\nReason: timeout") {
		t.Fatalf("second block missing:\n%s", text)
	}
}

func TestRegression_Single(t *testing.T) {
	newly := []runner.Result{{
		Entry:   playlist.Entry{Info: "#EXTINF:-1,Alpha", URL: "http://a/1"},
		Outcome: probe.Outcome{Reason: probe.ReasonTransportError},
	}}
	title, _ := Regression(newly)
	if title != "🔴 1 channel went DOWN" {
		t.Fatalf("title: %q", title)
	}
}

func TestRegression_CapsList(t *testing.T) {
	newly := make([]runner.Result, 25)
	for i := range newly {
		newly[i] = runner.Result{
			Entry:   playlist.Entry{Info: "#EXTINF:-1,Chan", URL: fmt.Sprintf("http://x/%d", i)},
			Outcome: probe.Outcome{Reason: probe.ReasonTimeout},
		}
	}

	_, text := Regression(newly)
	if got := strings.Count(text, "URL: "); got != maxListed {
		t.Fatalf("listed %d channels, want %d", got, maxListed)
	}
	if !strings.Contains(text, "...and 5 more") {
		t.Fatalf("missing overflow count:\n%s", text)
	}
}
