package report

import (
	"bufio"
	"fmt"
	"time"

	"github.com/avfs/avfs"

	"github.com/thecroxdevil/iptv-tools/internal/runner"
)

// WriteCleanedPlaylist writes the working entries as a fresh M3U
// playlist, in the order given.
func WriteCleanedPlaylist(fsys avfs.VFS, path string, working []runner.Result) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create playlist: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "#EXTM3U")
	for _, res := range working {
		fmt.Fprintln(w, res.Entry.Info)
		fmt.Fprintln(w, res.Entry.URL)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	return nil
}

// WriteDeadReport writes the dead entries as a commented report with a
// generation timestamp and a total count, one metadata block per
// channel.
func WriteDeadReport(fsys avfs.VFS, path string, dead []runner.Result) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# Dead Links Report")
	fmt.Fprintf(w, "# Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "# Total dead links: %d\n\n", len(dead))

	for _, res := range dead {
		fmt.Fprintf(w, "# %s\n", res.Entry.Name())
		fmt.Fprintln(w, res.Entry.Info)
		fmt.Fprintf(w, "%s\n\n", res.Entry.URL)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
