package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thecroxdevil/iptv-tools/internal/playlist"
	"github.com/thecroxdevil/iptv-tools/internal/probe"
	"github.com/thecroxdevil/iptv-tools/internal/runner"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func res(url string, working bool, reason probe.Reason) runner.Result {
	return runner.Result{
		Entry:   playlist.Entry{Info: "#EXTINF:-1,Ch " + url, URL: url},
		Outcome: probe.Outcome{Working: working, Reason: reason, LatencyMS: 12.5},
	}
}

func TestStore_RecordAndLastVerdicts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	results := []runner.Result{
		res("http://a.example/1.m3u8", true, ""),
		res("http://b.example/2.m3u8", false, probe.ReasonTimeout),
	}
	rec := RunRecord{
		InputPath: "playlist.m3u",
		Total:     2,
		Working:   1,
		Dead:      1,
	}
	require.NoError(t, s.RecordRun(ctx, rec, results))

	verdicts, err := s.LastVerdicts(ctx)
	require.NoError(t, err)
	require.Len(t, verdicts, 2)

	a := verdicts["http://a.example/1.m3u8"]
	assert.True(t, a.Working)
	assert.Empty(t, a.Reason)

	b := verdicts["http://b.example/2.m3u8"]
	assert.False(t, b.Working)
	assert.Equal(t, string(probe.ReasonTimeout), b.Reason)
}

func TestStore_LastVerdictsPicksMostRecentRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := RunRecord{ID: "run-1", StartedAt: time.Now().Add(-time.Hour), Total: 1, Working: 1}
	require.NoError(t, s.RecordRun(ctx, first,
		[]runner.Result{res("http://a.example/1", true, "")}))

	second := RunRecord{ID: "run-2", StartedAt: time.Now(), Total: 1, Dead: 1}
	require.NoError(t, s.RecordRun(ctx, second,
		[]runner.Result{res("http://a.example/1", false, probe.ReasonHTTPStatus)}))

	verdicts, err := s.LastVerdicts(ctx)
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.False(t, verdicts["http://a.example/1"].Working)
}

func TestStore_EmptyDatabase(t *testing.T) {
	s := openTestStore(t)

	verdicts, err := s.LastVerdicts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, verdicts)
}

func TestNewlyDead(t *testing.T) {
	prev := map[string]Verdict{
		"http://a.example/1": {URL: "http://a.example/1", Working: true},
		"http://b.example/2": {URL: "http://b.example/2", Working: false},
	}

	dead := []runner.Result{
		res("http://a.example/1", false, probe.ReasonTimeout),        // regressed
		res("http://b.example/2", false, probe.ReasonHTTPStatus),     // already dead
		res("http://c.example/3", false, probe.ReasonTransportError), // never seen
	}

	newly := NewlyDead(prev, dead)
	require.Len(t, newly, 1)
	assert.Equal(t, "http://a.example/1", newly[0].Entry.URL)
}
