package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// userAgent mimics a desktop browser. Some IPTV providers reject
// clients that do not look like one.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// manifestSniffLimit caps how much of a manifest body is read for the
// content check.
const manifestSniffLimit = 1024

// StreamChecker probes stream URLs with a single GET request each.
// The underlying client is safe for concurrent use.
type StreamChecker struct {
	Client *http.Client
}

// NewStreamChecker builds a checker with the given per-request timeout
// and transport. Pass InsecureTransport() for the usual IPTV trust
// policy or VerifiedTransport() to keep certificate checks on.
func NewStreamChecker(timeout time.Duration, transport http.RoundTripper) *StreamChecker {
	return &StreamChecker{
		Client: &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Check probes a single stream URL. Every failure mode is absorbed
// into the returned Outcome; Check never returns an error.
func (s *StreamChecker) Check(ctx context.Context, target string) Outcome {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{Reason: ReasonTransportError, Message: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Connection", "keep-alive")

	resp, err := s.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return Outcome{
			Reason:    classifyTransport(err),
			Message:   err.Error(),
			LatencyMS: latency,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Outcome{
			Reason:     ReasonHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
			LatencyMS:  latency,
		}
	}

	// Only manifest URLs get a content check. For anything else a 200
	// is conclusive and the body is never read.
	if isManifestURL(target) {
		head, err := io.ReadAll(io.LimitReader(resp.Body, manifestSniffLimit))
		if err != nil {
			return Outcome{
				Reason:     classifyTransport(err),
				StatusCode: resp.StatusCode,
				Message:    err.Error(),
				LatencyMS:  time.Since(start).Seconds() * 1000,
			}
		}
		if !looksLikeManifest(head) {
			return Outcome{
				Reason:     ReasonContentMismatch,
				StatusCode: resp.StatusCode,
				Message:    "invalid playlist content",
				LatencyMS:  time.Since(start).Seconds() * 1000,
			}
		}
	}

	return Outcome{
		Working:    true,
		StatusCode: resp.StatusCode,
		Message:    resp.Status,
		LatencyMS:  latency,
	}
}

func classifyTransport(err error) Reason {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ReasonTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	return ReasonTransportError
}

// isManifestURL matches on the raw URL text, query string included.
func isManifestURL(raw string) bool {
	return strings.HasSuffix(raw, ".m3u8") || strings.Contains(raw, "playlist.m3u8")
}

// looksLikeManifest checks the leading bytes of a manifest body for
// HLS tags. The bare "http" marker also accepts bodies that list
// absolute variant URLs; it is permissive and can pass non-HLS
// payloads.
func looksLikeManifest(head []byte) bool {
	body := string(head)
	return strings.Contains(body, "#EXTM3U") ||
		strings.Contains(body, "#EXT-X-") ||
		strings.Contains(body, "http")
}
