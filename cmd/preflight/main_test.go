package main

import (
	"strings"
	"testing"

	"github.com/avfs/avfs/vfs/memfs"

	"github.com/thecroxdevil/iptv-tools/internal/config"
)

func TestRun_AllSet(t *testing.T) {
	fsys := memfs.New()
	if err := fsys.MkdirAll("/data", 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvLogDir, "/logs")
	t.Setenv(config.EnvHistoryDB, "/data/history.db")
	t.Setenv(config.EnvWebhookURL, "https://hooks.example/T1")

	var out, errOut strings.Builder
	if code := run(fsys, &out, &errOut); code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, errOut.String())
	}
	for _, want := range []string{"✔ LOG_DIR=/logs", "✔ HISTORY_DB present", "✔ WEBHOOK_URL present", "✔ preflight passed"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("missing %q in output:\n%s", want, out.String())
		}
	}
	if errOut.Len() != 0 {
		t.Fatalf("unexpected warnings: %s", errOut.String())
	}
}

func TestRun_EmptyEnvWarns(t *testing.T) {
	t.Setenv(config.EnvLogDir, "")
	t.Setenv(config.EnvHistoryDB, "")
	t.Setenv(config.EnvWebhookURL, "")

	// The LOG_DIR fallback is relative, so pin the working directory.
	fsys := memfs.New()
	if err := fsys.Chdir("/"); err != nil {
		t.Fatal(err)
	}

	var out, errOut strings.Builder
	if code := run(fsys, &out, &errOut); code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, errOut.String())
	}
	for _, want := range []string{"⚠ LOG_DIR is empty", "⚠ HISTORY_DB empty", "⚠ WEBHOOK_URL empty"} {
		if !strings.Contains(errOut.String(), want) {
			t.Fatalf("missing %q in stderr:\n%s", want, errOut.String())
		}
	}
	if !strings.Contains(out.String(), "✔ preflight passed") {
		t.Fatalf("missing pass line:\n%s", out.String())
	}
}

func TestRun_MissingHistoryDir(t *testing.T) {
	t.Setenv(config.EnvLogDir, "/logs")
	t.Setenv(config.EnvHistoryDB, "/nope/history.db")
	t.Setenv(config.EnvWebhookURL, "")

	var out, errOut strings.Builder
	if code := run(memfs.New(), &out, &errOut); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "✖ HISTORY_DB directory") {
		t.Fatalf("missing failure line:\n%s", errOut.String())
	}
}

func TestRun_BadWebhookURL(t *testing.T) {
	t.Setenv(config.EnvLogDir, "/logs")
	t.Setenv(config.EnvHistoryDB, "")
	t.Setenv(config.EnvWebhookURL, "not a url")

	var out, errOut strings.Builder
	if code := run(memfs.New(), &out, &errOut); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "✖ WEBHOOK_URL is not a valid http(s) URL.") {
		t.Fatalf("missing failure line:\n%s", errOut.String())
	}
}
