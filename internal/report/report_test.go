package report

import (
	"regexp"
	"testing"

	"github.com/avfs/avfs/vfs/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thecroxdevil/iptv-tools/internal/playlist"
	"github.com/thecroxdevil/iptv-tools/internal/runner"
)

func result(info, url string) runner.Result {
	return runner.Result{Entry: playlist.Entry{Info: info, URL: url}}
}

func TestWriteCleanedPlaylist(t *testing.T) {
	vfs := memfs.New()
	working := []runner.Result{
		result("#EXTINF:-1,First", "http://example.com/1.m3u8"),
		result("#EXTINF:-1 group-title=\"News\",Second", "http://example.com/2.ts"),
	}

	require.NoError(t, WriteCleanedPlaylist(vfs, "/cleaned.m3u", working))

	got, err := vfs.ReadFile("/cleaned.m3u")
	require.NoError(t, err)
	want := "#EXTM3U\n" +
		"#EXTINF:-1,First\n" +
		"http://example.com/1.m3u8\n" +
		"#EXTINF:-1 group-title=\"News\",Second\n" +
		"http://example.com/2.ts\n"
	assert.Equal(t, want, string(got))
}

func TestWriteCleanedPlaylist_RoundTripsThroughParser(t *testing.T) {
	vfs := memfs.New()
	working := []runner.Result{
		result("#EXTINF:-1,Keep Me", "http://example.com/keep.m3u8"),
	}

	require.NoError(t, WriteCleanedPlaylist(vfs, "/cleaned.m3u", working))

	entries, err := playlist.Parse(vfs, "/cleaned.m3u")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Keep Me", entries[0].Name())
	assert.Equal(t, "http://example.com/keep.m3u8", entries[0].URL)
}

func TestWriteDeadReport(t *testing.T) {
	vfs := memfs.New()
	dead := []runner.Result{
		result("#EXTINF:-1,Gone Channel", "http://example.com/gone.m3u8"),
		result("#EXTINF:-1", "http://example.com/nameless.ts"),
	}

	require.NoError(t, WriteDeadReport(vfs, "/dead.txt", dead))

	got, err := vfs.ReadFile("/dead.txt")
	require.NoError(t, err)
	text := string(got)

	assert.Regexp(t,
		regexp.MustCompile(`^# Dead Links Report\n# Generated: \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\n# Total dead links: 2\n\n`),
		text)
	assert.Contains(t, text, "# Gone Channel\n#EXTINF:-1,Gone Channel\nhttp://example.com/gone.m3u8\n\n")
	assert.Contains(t, text, "# Unknown\n#EXTINF:-1\nhttp://example.com/nameless.ts\n\n")
}

func TestWriteDeadReport_Empty(t *testing.T) {
	vfs := memfs.New()
	require.NoError(t, WriteDeadReport(vfs, "/dead.txt", nil))

	got, err := vfs.ReadFile("/dead.txt")
	require.NoError(t, err)
	assert.Contains(t, string(got), "# Total dead links: 0\n")
}

func TestWrite_BadPath(t *testing.T) {
	vfs := memfs.New()
	err := WriteCleanedPlaylist(vfs, "/missing/dir/cleaned.m3u", nil)
	assert.Error(t, err)

	err = WriteDeadReport(vfs, "/missing/dir/dead.txt", nil)
	assert.Error(t, err)
}
