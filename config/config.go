// Package config loads the newsgrab configuration from
// ~/.newsgrab/config.yaml and NEWSGRAB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/newsgrab/fetch"
	"github.com/pevans/newsgrab/scraper"
	"gopkg.in/yaml.v3"
)

// Validation errors
var (
	ErrInvalidStorageType = errors.New("storage.type must be sqlite or postgres")
	ErrMissingDSN         = errors.New("storage.dsn is required")
	ErrInvalidWorkers     = errors.New("run.workers must be at least 1")
	ErrInvalidLogLevel    = errors.New("log.level must be debug, info, warn or error")
	ErrInvalidRetry       = errors.New("fetch.retry.max_attempts must be at least 1")
	ErrMissingAPIAddr     = errors.New("api.addr is required")
)

// SiteConfig selects the site and overrides parts of its profile.
type SiteConfig struct {
	BaseURL     string   `yaml:"base_url"`
	ListingURLs []string `yaml:"listing_urls"`
	FeedURL     string   `yaml:"feed_url"`
	MaxPages    int      `yaml:"max_pages"`
	MaxArticles int      `yaml:"max_articles"`
	// ProfileFile is a YAML profile replacing the built-in probe lists.
	ProfileFile   string `yaml:"profile_file"`
	RespectRobots *bool  `yaml:"respect_robots"`
}

// StorageConfig represents storage configuration from config file.
type StorageConfig struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
}

// FetchConfig configures the HTTP fetch layer.
type FetchConfig struct {
	UserAgent    string      `yaml:"user_agent"`
	MaxBodyBytes int64       `yaml:"max_body_bytes"`
	Retry        fetch.Retry `yaml:"retry"`
}

// RunConfig configures the batch runner.
type RunConfig struct {
	Workers   int `yaml:"workers"`
	MaxImages int `yaml:"max_images"`
	// Delays between article fetches; zero keeps the profile's values.
	DelayMin time.Duration `yaml:"delay_min"`
	DelayMax time.Duration `yaml:"delay_max"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// APIConfig configures the read-only HTTP API.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// Config represents the structure of ~/.newsgrab/config.yaml.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Storage StorageConfig `yaml:"storage"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Run     RunConfig     `yaml:"run"`
	Log     LogConfig     `yaml:"log"`
	API     APIConfig     `yaml:"api"`

	// Profile is an inline profile overlay, decoded on top of the
	// built-in profile (or ProfileFile) by Profile().
	Profile yaml.Node `yaml:"profile"`
}

// Dir returns ~/.newsgrab.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".newsgrab"), nil
}

// DefaultPath returns ~/.newsgrab/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	dsn := "newsgrab.db"
	if dir, err := Dir(); err == nil {
		dsn = filepath.Join(dir, "articles.db")
	}

	return &Config{
		Site: SiteConfig{
			BaseURL: scraper.DefaultBaseURL,
		},
		Storage: StorageConfig{
			Type: "sqlite",
			DSN:  dsn,
		},
		Fetch: FetchConfig{
			UserAgent:    fetch.DefaultUserAgent,
			MaxBodyBytes: 10 * 1024 * 1024,
			Retry:        fetch.DefaultRetry(),
		},
		Run: RunConfig{
			Workers: 1,
		},
		Log: LogConfig{
			Level: "info",
		},
		API: APIConfig{
			Addr: ":8080",
		},
	}
}

// Validate checks the configuration for values no component can run with.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStorageType, c.Storage.Type)
	}
	if c.Storage.DSN == "" {
		return ErrMissingDSN
	}
	if c.Run.Workers < 1 {
		return ErrInvalidWorkers
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	if c.Fetch.Retry.MaxAttempts < 1 {
		return ErrInvalidRetry
	}
	if c.API.Addr == "" {
		return ErrMissingAPIAddr
	}
	if c.Run.DelayMin > c.Run.DelayMax && c.Run.DelayMax > 0 {
		return scraper.ErrDelayRange
	}
	return nil
}

// BuildProfile assembles the site profile: the built-in profile or
// Site.ProfileFile, then the inline profile overlay, then the Site
// overrides.
func (c *Config) BuildProfile() (*scraper.Profile, error) {
	profile := scraper.DefaultProfile()
	if c.Site.ProfileFile != "" {
		loaded, err := scraper.LoadProfile(c.Site.ProfileFile)
		if err != nil {
			return nil, err
		}
		profile = loaded
	}

	if !c.Profile.IsZero() {
		if err := c.Profile.Decode(profile); err != nil {
			return nil, fmt.Errorf("failed to decode inline profile: %w", err)
		}
	}

	site := c.Site
	if site.BaseURL != "" && site.BaseURL != profile.BaseURL {
		// Listing URLs that point at the old origin follow the new one
		if len(profile.List.ListingURLs) == 1 && profile.List.ListingURLs[0] == profile.BaseURL+"/" {
			profile.List.ListingURLs = []string{site.BaseURL + "/"}
		}
		profile.BaseURL = site.BaseURL
	}
	if len(site.ListingURLs) > 0 {
		profile.List.ListingURLs = site.ListingURLs
	}
	if site.FeedURL != "" {
		profile.List.FeedURL = site.FeedURL
	}
	if site.MaxPages > 0 {
		profile.List.MaxPages = site.MaxPages
	}
	if site.MaxArticles > 0 {
		profile.List.MaxArticles = site.MaxArticles
	}
	if site.RespectRobots != nil {
		profile.List.RespectRobots = *site.RespectRobots
	}

	if c.Run.MaxImages != 0 {
		profile.MaxImages = c.Run.MaxImages
	}
	if c.Run.DelayMax > 0 {
		profile.Politeness.ArticleDelayMin = c.Run.DelayMin
		profile.Politeness.ArticleDelayMax = c.Run.DelayMax
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return profile, nil
}
