// Package epg fetches XMLTV guide data from remote sources and
// prepares it for Jellyfin.
package epg

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thecroxdevil/iptv-tools/internal/xmltv"
)

// userAgent mimics a desktop browser; several guide providers refuse
// obvious non-browser clients.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Scraper downloads XMLTV guide data.
type Scraper struct {
	Client *http.Client
	Logger *zap.Logger
}

// NewScraper builds a Scraper with the given request timeout.
func NewScraper(timeout time.Duration, logger *zap.Logger) *Scraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		Client: &http.Client{Timeout: timeout},
		Logger: logger,
	}
}

// Fetch downloads the guide at url and returns the raw XML bytes.
// Gzip payloads are decompressed, whether detected from the magic
// bytes or announced by a .gz URL suffix.
func (s *Scraper) Fetch(ctx context.Context, url string) ([]byte, error) {
	s.Logger.Debug("fetching_epg", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch epg: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("epg source returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read epg body: %w", err)
	}

	if isGzip(data) || strings.HasSuffix(url, ".gz") {
		if data, err = gunzip(data); err != nil {
			return nil, fmt.Errorf("decompress epg: %w", err)
		}
	}

	s.Logger.Debug("epg_fetched", zap.String("url", url), zap.Int("bytes", len(data)))
	return data, nil
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// FilterProgrammes keeps programmes starting between now and daysAhead
// days from now, both ends inclusive, sorted by start timestamp.
// Programmes whose start cannot be parsed are dropped.
func FilterProgrammes(progs []xmltv.Programme, now time.Time, daysAhead int) []xmltv.Programme {
	end := now.AddDate(0, 0, daysAhead)

	var kept []xmltv.Programme
	for _, p := range progs {
		start, err := xmltv.ParseTime(p.Start)
		if err != nil {
			continue
		}
		if start.Before(now) || start.After(end) {
			continue
		}
		kept = append(kept, p)
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

// Clean normalizes a scraped guide for output. Channels that declared
// no display name or have no remaining programmes are dropped, along
// with programmes referencing a dropped channel. Titles and
// descriptions are trimmed, empty categories removed, and channels cut
// down to a single display name and icon. Order is preserved.
func Clean(doc *xmltv.TV) *xmltv.TV {
	referenced := make(map[string]bool, len(doc.Programmes))
	for _, p := range doc.Programmes {
		referenced[p.Channel] = true
	}

	out := &xmltv.TV{
		GeneratorName: doc.GeneratorName,
		GeneratorURL:  doc.GeneratorURL,
	}

	kept := make(map[string]bool)
	for _, ch := range doc.Channels {
		if len(ch.DisplayNames) == 0 || !referenced[ch.ID] || kept[ch.ID] {
			continue
		}
		ch.DisplayNames = ch.DisplayNames[:1]
		if len(ch.Icons) > 1 {
			ch.Icons = ch.Icons[:1]
		}
		out.Channels = append(out.Channels, ch)
		kept[ch.ID] = true
	}

	for _, p := range doc.Programmes {
		if !kept[p.Channel] {
			continue
		}
		p.Title = strings.TrimSpace(p.Title)
		p.Desc = strings.TrimSpace(p.Desc)

		var cats []string
		for _, c := range p.Categories {
			if c = strings.TrimSpace(c); c != "" {
				cats = append(cats, c)
			}
		}
		p.Categories = cats
		out.Programmes = append(out.Programmes, p)
	}

	return out
}
