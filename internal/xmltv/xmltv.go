// Package xmltv models the XMLTV guide format consumed by Jellyfin and
// other EPG-aware players.
package xmltv

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/avfs/avfs"
)

// TimeLayout is the date portion of an XMLTV timestamp such as
// "20231201120000 +0000".
const TimeLayout = "20060102150405"

// TV is the root of an XMLTV document.
type TV struct {
	XMLName       xml.Name    `xml:"tv"`
	GeneratorName string      `xml:"generator-info-name,attr,omitempty"`
	GeneratorURL  string      `xml:"generator-info-url,attr,omitempty"`
	Channels      []Channel   `xml:"channel"`
	Programmes    []Programme `xml:"programme"`
}

// Channel is one channel declaration. Feeds may carry several display
// names per channel; the first one is the canonical name.
type Channel struct {
	ID           string   `xml:"id,attr"`
	DisplayNames []string `xml:"display-name"`
	Icons        []Icon   `xml:"icon"`
}

// Name returns the channel's first display name, or "" when the feed
// declared none.
func (c Channel) Name() string {
	if len(c.DisplayNames) == 0 {
		return ""
	}
	return c.DisplayNames[0]
}

// Icon is a channel logo reference.
type Icon struct {
	Src string `xml:"src,attr"`
}

// Programme is one guide entry. Start and Stop hold the raw XMLTV
// timestamp text as found in the feed.
type Programme struct {
	Channel    string   `xml:"channel,attr"`
	Start      string   `xml:"start,attr"`
	Stop       string   `xml:"stop,attr"`
	Title      string   `xml:"title,omitempty"`
	Desc       string   `xml:"desc,omitempty"`
	Categories []string `xml:"category"`
}

// ParseTime reads the date portion of an XMLTV timestamp. Only the
// leading fourteen digits are considered; the offset suffix is ignored
// and the result is in UTC.
func ParseTime(s string) (time.Time, error) {
	if len(s) < len(TimeLayout) {
		return time.Time{}, fmt.Errorf("xmltv time %q too short", s)
	}
	return time.Parse(TimeLayout, s[:len(TimeLayout)])
}

// FormatTime renders t as an XMLTV timestamp, e.g. "20231201120000 +0000".
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout) + " +0000"
}

// Parse reads an XMLTV document.
func Parse(r io.Reader) (*TV, error) {
	var doc TV
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse xmltv: %w", err)
	}
	return &doc, nil
}

// Write serializes the document with an XML declaration and two-space
// indentation.
func (t *TV) Write(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode xmltv: %w", err)
	}
	return nil
}

// WriteFile writes the document to path.
func (t *TV) WriteFile(fsys avfs.VFS, path string) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create xmltv file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := t.Write(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write xmltv file: %w", err)
	}
	return nil
}
