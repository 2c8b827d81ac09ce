package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Environment variables honored by all tools. Flags win over these.
const (
	EnvLogDir     = "LOG_DIR"
	EnvHistoryDB  = "HISTORY_DB"
	EnvWebhookURL = "WEBHOOK_URL"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Clean holds the m3uclean settings.
type Clean struct {
	InputPath  string
	OutputPath string
	ReportPath string
	Timeout    time.Duration
	Workers    int
	Verbose    bool
	VerifyTLS  bool
	LogDir     string
	HistoryDB  string
	WebhookURL string
}

// ParseClean reads m3uclean's command line (everything after the
// program name) and environment. The output path defaults to
// cleaned_<input> next to the input file.
func ParseClean(args []string) (Clean, error) {
	var c Clean
	fs := flag.NewFlagSet("m3uclean", flag.ContinueOnError)
	fs.StringVar(&c.OutputPath, "o", "", "output cleaned playlist file (default: cleaned_<input>)")
	fs.StringVar(&c.ReportPath, "r", "dead_links_report.txt", "dead links report file")
	timeout := fs.Int("t", 10, "timeout for testing URLs in seconds")
	fs.IntVar(&c.Workers, "w", 20, "number of concurrent workers")
	fs.BoolVar(&c.Verbose, "v", false, "verbose output")
	fs.BoolVar(&c.VerifyTLS, "verify-tls", false, "verify TLS certificates instead of accepting any")
	fs.StringVar(&c.HistoryDB, "history", envOr(EnvHistoryDB, ""), "sqlite file for run history (empty disables)")
	if err := fs.Parse(args); err != nil {
		return Clean{}, err
	}
	if fs.NArg() < 1 {
		return Clean{}, fmt.Errorf("input playlist file required")
	}

	c.InputPath = fs.Arg(0)
	if c.OutputPath == "" {
		c.OutputPath = filepath.Join(filepath.Dir(c.InputPath), "cleaned_"+filepath.Base(c.InputPath))
	}
	c.Timeout = time.Duration(*timeout) * time.Second
	c.LogDir = envOr(EnvLogDir, "logs")
	c.WebhookURL = os.Getenv(EnvWebhookURL)
	return c, nil
}

// Scrape holds the epgscrape settings.
type Scrape struct {
	SourceURL  string
	OutputPath string
	DaysAhead  int
	Timeout    time.Duration
	Verbose    bool
	LogDir     string
}

// ParseScrape reads epgscrape's command line and environment.
func ParseScrape(args []string) (Scrape, error) {
	var c Scrape
	fs := flag.NewFlagSet("epgscrape", flag.ContinueOnError)
	fs.StringVar(&c.OutputPath, "o", "jellyfin_epg.xml", "output EPG file")
	fs.IntVar(&c.DaysAhead, "d", 7, "days ahead to include")
	timeout := fs.Int("t", 30, "request timeout in seconds")
	fs.BoolVar(&c.Verbose, "v", false, "verbose output")
	if err := fs.Parse(args); err != nil {
		return Scrape{}, err
	}
	if fs.NArg() < 1 {
		return Scrape{}, fmt.Errorf("EPG source URL required")
	}

	c.SourceURL = fs.Arg(0)
	c.Timeout = time.Duration(*timeout) * time.Second
	c.LogDir = envOr(EnvLogDir, "logs")
	return c, nil
}

// Generate holds the xmltvgen settings.
type Generate struct {
	OutputPath     string
	JSONPath       string
	CSVPath        string
	Demo           bool
	DemoChannels   int
	DemoProgrammes int
	Verbose        bool
	LogDir         string
}

// HasSource reports whether at least one input source was selected.
func (g Generate) HasSource() bool {
	return g.JSONPath != "" || g.CSVPath != "" || g.Demo
}

// ParseGenerate reads xmltvgen's command line and environment.
func ParseGenerate(args []string) (Generate, error) {
	var c Generate
	fs := flag.NewFlagSet("xmltvgen", flag.ContinueOnError)
	fs.StringVar(&c.OutputPath, "o", "generated_epg.xml", "output XMLTV file")
	fs.StringVar(&c.JSONPath, "json", "", "input JSON file")
	fs.StringVar(&c.CSVPath, "csv", "", "input CSV file")
	fs.BoolVar(&c.Demo, "demo", false, "generate demo data")
	fs.IntVar(&c.DemoChannels, "demo-channels", 5, "number of demo channels")
	fs.IntVar(&c.DemoProgrammes, "demo-programmes", 10, "programmes per channel")
	fs.BoolVar(&c.Verbose, "v", false, "verbose output")
	if err := fs.Parse(args); err != nil {
		return Generate{}, err
	}

	c.LogDir = envOr(EnvLogDir, "logs")
	return c, nil
}
