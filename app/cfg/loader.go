package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath  string `long:"db-path" env:"DB_PATH" default:"./data/catalog.db" description:"Path to the SQLite catalog database"`
	DataDir string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory holding collector output and stage checkpoints"`

	// Pipeline configuration
	SourcesDir       string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing per-source configuration files"`
	LexiconFile      string `long:"lexicon-file" env:"LEXICON_FILE" description:"Optional YAML lexicon override for the normalizer"`
	WorkerCount      int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of concurrent workers for normalization and geocoding"`
	CrossSourceDedup bool   `long:"cross-source-dedup" env:"CROSS_SOURCE_DEDUP" description:"Drop near-duplicate events listed by multiple sources under different URLs"`
	SkipNormalize    bool   `long:"skip-normalize" description:"Resume from existing per-source checkpoint files"`
	SkipConsolidate  bool   `long:"skip-consolidate" description:"Resume from an existing master checkpoint file"`
	SkipLoad         bool   `long:"skip-load" description:"Stop after writing the master checkpoint (scrape-only runs)"`
	SkipGeocoding    bool   `long:"skip-geocoding" env:"SKIP_GEOCODING" description:"Do not call the geocoding API; records without coordinates are skipped"`

	// Geocoding configuration
	GeocoderURL    string `long:"geocoder-url" env:"GEOCODER_URL" description:"Geocoding API endpoint (defaults to the Google Geocoding API)"`
	GeocoderAPIKey string `long:"geocoder-api-key" env:"GEOCODER_API_KEY" description:"Geocoding API credential"`
	GeocodeRegion  string `long:"geocode-region" env:"GEOCODE_REGION" default:"Bengaluru, Karnataka, India" description:"Region context appended to geocode queries"`

	// Server configuration
	Serve             bool   `long:"serve" env:"SERVE" description:"Run as a daemon: scheduled pipeline runs plus the catalog HTTP API"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port (serve mode)"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"21600" description:"Seconds between scheduled pipeline runs (serve mode)"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for mutating endpoints (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"eventpipe/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Asia/Kolkata" description:"Timezone for timestamps"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		DataDir:           raw.DataDir,
		SourcesDir:        raw.SourcesDir,
		LexiconFile:       raw.LexiconFile,
		WorkerCount:       raw.WorkerCount,
		CrossSourceDedup:  raw.CrossSourceDedup,
		SkipNormalize:     raw.SkipNormalize,
		SkipConsolidate:   raw.SkipConsolidate,
		SkipLoad:          raw.SkipLoad,
		SkipGeocoding:     raw.SkipGeocoding,
		GeocoderURL:       raw.GeocoderURL,
		GeocoderAPIKey:    raw.GeocoderAPIKey,
		GeocodeRegion:     raw.GeocodeRegion,
		Serve:             raw.Serve,
		Port:              raw.Port,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
