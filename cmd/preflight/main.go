// Checks the shared tool environment before a scheduled run.
package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/avfs/avfs"
	"github.com/avfs/avfs/vfs/osfs"

	"github.com/thecroxdevil/iptv-tools/internal/config"
)

func main() {
	os.Exit(run(osfs.New(), os.Stdout, os.Stderr))
}

func run(fsys avfs.VFS, stdout, stderr io.Writer) int {
	fail := func(msg string) { fmt.Fprintln(stderr, "✖", msg) }
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	logDir := strings.TrimSpace(os.Getenv(config.EnvLogDir))
	historyDB := strings.TrimSpace(os.Getenv(config.EnvHistoryDB))
	webhook := strings.TrimSpace(os.Getenv(config.EnvWebhookURL))

	if logDir == "" {
		warn("LOG_DIR is empty; tools default to ./logs.")
		logDir = "logs"
	}
	if err := checkWritable(fsys, logDir); err != nil {
		fail(fmt.Sprintf("LOG_DIR %q is not writable: %v", logDir, err))
		return 1
	}
	ok("LOG_DIR=" + logDir)

	if historyDB == "" {
		warn("HISTORY_DB empty — runs are only recorded when -history is passed.")
	} else {
		if dir := filepath.Dir(historyDB); !dirExists(fsys, dir) {
			fail(fmt.Sprintf("HISTORY_DB directory %q does not exist.", dir))
			return 1
		}
		ok("HISTORY_DB present")
	}

	if webhook == "" {
		warn("WEBHOOK_URL empty — run summaries will not be posted.")
	} else {
		u, err := url.Parse(webhook)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fail("WEBHOOK_URL is not a valid http(s) URL.")
			return 1
		}
		ok("WEBHOOK_URL present")
	}

	ok("preflight passed")
	return 0
}

func dirExists(fsys avfs.VFS, dir string) bool {
	info, err := fsys.Stat(dir)
	return err == nil && info.IsDir()
}

// checkWritable creates the directory if needed and proves write access
// with a throwaway file.
func checkWritable(fsys avfs.VFS, dir string) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".preflight")
	f, err := fsys.Create(probe)
	if err != nil {
		return err
	}
	f.Close()
	return fsys.Remove(probe)
}
