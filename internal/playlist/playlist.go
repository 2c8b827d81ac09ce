package playlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/avfs/avfs"
)

// Entry is one channel in an M3U playlist: the #EXTINF metadata line
// and the stream URL that follows it.
type Entry struct {
	Info string
	URL  string
}

// Name returns the display name from the #EXTINF line, the text after
// its last comma. Lines without a comma get "Unknown".
func (e Entry) Name() string {
	i := strings.LastIndex(e.Info, ",")
	if i < 0 {
		return "Unknown"
	}
	return strings.TrimSpace(e.Info[i+1:])
}

// Parse reads an M3U playlist from the given filesystem. A channel is
// a #EXTINF line followed by the next non-comment, non-empty line as
// its URL; anything else is skipped. Malformed entries are dropped
// rather than reported, so a damaged playlist yields fewer entries,
// not an error.
func Parse(fsys avfs.VFS, path string) ([]Entry, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open playlist: %w", err)
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	// EXTINF lines carrying logo URLs and group tags get long.
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, 1024*1024)

	var entries []Entry
	var pending string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "#EXTINF:"):
			pending = line
		case line == "" || strings.HasPrefix(line, "#"):
			// header, comment or blank line
		case pending != "":
			entries = append(entries, Entry{Info: pending, URL: line})
			pending = ""
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan playlist: %w", err)
	}
	return entries, nil
}
