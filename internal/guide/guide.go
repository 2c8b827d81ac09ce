// Package guide builds XMLTV documents from JSON or CSV schedule files
// or from generated demo data.
package guide

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/avfs/avfs"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/thecroxdevil/iptv-tools/internal/xmltv"
)

// Timestamp layouts accepted in schedule source files.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"20060102150405",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

// ParseTime parses a schedule timestamp in any of the accepted
// layouts.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time: %q", s)
}

// Builder accumulates channels and programmes and renders them as an
// XMLTV document. Channels keep insertion order; re-adding an ID
// replaces the earlier definition in place.
type Builder struct {
	logger     *zap.Logger
	channels   []xmltv.Channel
	index      map[string]int
	programmes []xmltv.Programme
}

// NewBuilder returns an empty Builder.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger, index: make(map[string]int)}
}

// AddChannel registers a channel. iconURL may be empty.
func (b *Builder) AddChannel(id, displayName, iconURL string) {
	ch := xmltv.Channel{ID: id, DisplayNames: []string{displayName}}
	if iconURL != "" {
		ch.Icons = []xmltv.Icon{{Src: iconURL}}
	}

	if i, ok := b.index[id]; ok {
		b.channels[i] = ch
	} else {
		b.index[id] = len(b.channels)
		b.channels = append(b.channels, ch)
	}
	b.logger.Debug("channel_added", zap.String("id", id), zap.String("name", displayName))
}

// AddProgramme appends a guide entry. Start and stop are XMLTV
// timestamps as produced by xmltv.FormatTime.
func (b *Builder) AddProgramme(channelID, start, stop, title, desc string, categories []string) {
	b.programmes = append(b.programmes, xmltv.Programme{
		Channel:    channelID,
		Start:      start,
		Stop:       stop,
		Title:      title,
		Desc:       desc,
		Categories: categories,
	})
	b.logger.Debug("programme_added", zap.String("channel", channelID), zap.String("title", title))
}

// categories accepts either a single string or an array of strings.
type categories []string

func (c *categories) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*c = categories{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("category must be a string or an array of strings")
	}
	*c = categories(many)
	return nil
}

type jsonGuide struct {
	Channels []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Icon string `json:"icon"`
	} `json:"channels"`
	Programmes []struct {
		Channel     string     `json:"channel"`
		Start       string     `json:"start"`
		Stop        string     `json:"stop"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Category    categories `json:"category"`
	} `json:"programmes"`
}

// LoadJSON loads channels and programmes from a JSON schedule file.
// Programme timestamps may use any accepted layout and are rewritten
// to XMLTV form; a timestamp that parses with none of them fails the
// whole load.
func (b *Builder) LoadJSON(fsys avfs.VFS, path string) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open json schedule: %w", err)
	}

	var src jsonGuide
	if err := json.Unmarshal(data, &src); err != nil {
		return fmt.Errorf("parse json schedule: %w", err)
	}

	for _, ch := range src.Channels {
		b.AddChannel(ch.ID, ch.Name, ch.Icon)
	}
	for _, p := range src.Programmes {
		start, err := ParseTime(p.Start)
		if err != nil {
			return fmt.Errorf("programme %q: %w", p.Title, err)
		}
		stop, err := ParseTime(p.Stop)
		if err != nil {
			return fmt.Errorf("programme %q: %w", p.Title, err)
		}
		b.AddProgramme(p.Channel, xmltv.FormatTime(start), xmltv.FormatTime(stop), p.Title, p.Description, p.Category)
	}

	b.logger.Debug("json_loaded", zap.String("path", path),
		zap.Int("channels", len(b.channels)), zap.Int("programmes", len(b.programmes)))
	return nil
}

// LoadCSV loads channels and programmes from a CSV schedule file. The
// header row names the columns. Rows with channel_id and channel_name
// add a channel; rows with start, stop, and title add a programme, and
// one row may do both. The category column holds a comma-separated
// list.
func (b *Builder) LoadCSV(fsys avfs.VFS, path string) error {
	f, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("open csv schedule: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("parse csv schedule: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	for _, row := range rows[1:] {
		id := field(row, "channel_id")
		if name := field(row, "channel_name"); id != "" && name != "" {
			b.AddChannel(id, name, field(row, "icon"))
		}

		startText, stopText, title := field(row, "start"), field(row, "stop"), field(row, "title")
		if startText == "" || stopText == "" || title == "" {
			continue
		}
		start, err := ParseTime(startText)
		if err != nil {
			return fmt.Errorf("programme %q: %w", title, err)
		}
		stop, err := ParseTime(stopText)
		if err != nil {
			return fmt.Errorf("programme %q: %w", title, err)
		}

		var cats []string
		if c := field(row, "category"); c != "" {
			cats = strings.Split(c, ",")
		}
		b.AddProgramme(id, xmltv.FormatTime(start), xmltv.FormatTime(stop), title, field(row, "description"), cats)
	}

	b.logger.Debug("csv_loaded", zap.String("path", path),
		zap.Int("channels", len(b.channels)), zap.Int("programmes", len(b.programmes)))
	return nil
}

// Demo channel roster.
var demoChannels = []struct {
	id, name, icon string
}{
	{"ch1", "Demo News Channel", "https://example.com/news.png"},
	{"ch2", "Demo Sports Channel", "https://example.com/sports.png"},
	{"ch3", "Demo Entertainment", "https://example.com/entertainment.png"},
	{"ch4", "Demo Movies", "https://example.com/movies.png"},
	{"ch5", "Demo Kids Channel", "https://example.com/kids.png"},
}

// Demo fills the builder with generated schedule data: up to
// numChannels from the demo roster, each with back-to-back hourly
// programmes starting at base.
func (b *Builder) Demo(base time.Time, numChannels, programmesPerChannel int) {
	if numChannels > len(demoChannels) {
		numChannels = len(demoChannels)
	}

	for i := 0; i < numChannels; i++ {
		ch := demoChannels[i]
		b.AddChannel(ch.id, ch.name, ch.icon)

		for j := 0; j < programmesPerChannel; j++ {
			start := base.Add(time.Duration(j) * time.Hour)
			stop := start.Add(time.Hour)

			title := fmt.Sprintf("Programme %d", j+1)
			desc := fmt.Sprintf("Demo programme %d on %s", j+1, ch.name)
			cats := []string{"Demo", "Test"}

			switch {
			case strings.Contains(ch.name, "News"):
				title = fmt.Sprintf("News Bulletin %d", j+1)
				cats = []string{"News"}
			case strings.Contains(ch.name, "Sports"):
				title = fmt.Sprintf("Sports Update %d", j+1)
				cats = []string{"Sports"}
			case strings.Contains(ch.name, "Movies"):
				title = fmt.Sprintf("Movie Title %d", j+1)
				cats = []string{"Movies", "Drama"}
			case strings.Contains(ch.name, "Kids"):
				title = fmt.Sprintf("Kids Show %d", j+1)
				cats = []string{"Kids", "Educational"}
			}

			b.AddProgramme(ch.id, xmltv.FormatTime(start), xmltv.FormatTime(stop), title, desc, cats)
		}
	}

	b.logger.Debug("demo_generated",
		zap.Int("channels", numChannels), zap.Int("programmes_per_channel", programmesPerChannel))
}

var xmltvTimeRe = regexp.MustCompile(`^\d{14} [+-]\d{4}`)

// Validate reports consistency faults: programmes referencing channel
// IDs that were never added and timestamps that are not in XMLTV form.
// All faults are combined into the returned error.
func (b *Builder) Validate() error {
	known := make(map[string]bool, len(b.channels))
	for _, ch := range b.channels {
		known[ch.ID] = true
	}

	var err error

	orphans := make(map[string]bool)
	for _, p := range b.programmes {
		if !known[p.Channel] {
			orphans[p.Channel] = true
		}
	}
	if len(orphans) > 0 {
		ids := make([]string, 0, len(orphans))
		for id := range orphans {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		err = multierr.Append(err, fmt.Errorf("programmes reference unknown channels: %s", strings.Join(ids, ", ")))
	}

	for i, p := range b.programmes {
		if !xmltvTimeRe.MatchString(p.Start) {
			err = multierr.Append(err, fmt.Errorf("programme %d: invalid start time format: %q", i, p.Start))
		}
		if !xmltvTimeRe.MatchString(p.Stop) {
			err = multierr.Append(err, fmt.Errorf("programme %d: invalid stop time format: %q", i, p.Stop))
		}
	}

	return err
}

// Document renders the accumulated data as an XMLTV document. Category
// entries are trimmed, empty ones left out.
func (b *Builder) Document() *xmltv.TV {
	doc := &xmltv.TV{
		Channels:   make([]xmltv.Channel, len(b.channels)),
		Programmes: make([]xmltv.Programme, 0, len(b.programmes)),
	}
	copy(doc.Channels, b.channels)

	for _, p := range b.programmes {
		var cats []string
		for _, c := range p.Categories {
			if c = strings.TrimSpace(c); c != "" {
				cats = append(cats, c)
			}
		}
		p.Categories = cats
		doc.Programmes = append(doc.Programmes, p)
	}
	return doc
}
