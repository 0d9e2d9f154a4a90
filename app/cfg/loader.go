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
	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SourcesFile  string `long:"sources-file" env:"SOURCES_FILE" description:"Path to a YAML source registry overriding the embedded defaults"`
	DefaultLimit int    `long:"default-limit" env:"DEFAULT_LIMIT" default:"50" description:"Default article limit when the request does not specify one"`

	// Upstream fetch configuration
	FetchTimeout int `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15" description:"HTTP client timeout for upstream calls in seconds"`
	FeedTimeout  int `long:"feed-timeout" env:"FEED_TIMEOUT" default:"5" description:"Per-feed timeout for the RSS source in seconds"`
	MaxFeeds     int `long:"max-feeds" env:"MAX_FEEDS" default:"15" description:"Maximum number of RSS feeds fetched per aggregation call"`

	// Transport cache configuration
	CachePath string `long:"cache-path" env:"CACHE_PATH" default:"lackeynews.db" description:"SQLite file for the upstream response cache (empty disables caching)"`
	CacheTTL  int    `long:"cache-ttl" env:"CACHE_TTL" default:"300" description:"Upstream response cache TTL in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"LackeyNews/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
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
		Port:         raw.Port,
		SourcesFile:  raw.SourcesFile,
		DefaultLimit: raw.DefaultLimit,
		FetchTimeout: raw.FetchTimeout,
		FeedTimeout:  raw.FeedTimeout,
		MaxFeeds:     raw.MaxFeeds,
		CachePath:    raw.CachePath,
		CacheTTL:     raw.CacheTTL,
		UserAgent:    raw.UserAgent,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
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
