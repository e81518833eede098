package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NEWSGRAB_"

// LoadFile loads configuration from path on top of Default(). A missing
// file is not an error and yields the defaults. Returns error if the file
// exists but cannot be parsed.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load reads the config file at path (DefaultPath when empty), applies
// NEWSGRAB_* overrides from the environment and an optional .env file in
// the working directory, and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	// A missing .env is normal
	_ = godotenv.Load()

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		value, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(value), ok && strings.TrimSpace(value) != ""
	}

	if v, ok := get("BASE_URL"); ok {
		c.Site.BaseURL = v
	}
	if v, ok := get("FEED_URL"); ok {
		c.Site.FeedURL = v
	}
	if v, ok := get("PROFILE"); ok {
		c.Site.ProfileFile = v
	}
	if v, ok := get("STORAGE_TYPE"); ok {
		c.Storage.Type = v
	}
	if v, ok := get("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := get("USER_AGENT"); ok {
		c.Fetch.UserAgent = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := get("API_ADDR"); ok {
		c.API.Addr = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"WORKERS", &c.Run.Workers},
		{"MAX_PAGES", &c.Site.MaxPages},
		{"MAX_ARTICLES", &c.Site.MaxArticles},
		{"MAX_IMAGES", &c.Run.MaxImages},
		{"MAX_ATTEMPTS", &c.Fetch.Retry.MaxAttempts},
	}
	for _, field := range ints {
		v, ok := get(field.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, field.key, err)
		}
		*field.dst = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"TIMEOUT", &c.Fetch.Retry.Timeout},
		{"DELAY_MIN", &c.Run.DelayMin},
		{"DELAY_MAX", &c.Run.DelayMax},
	}
	for _, field := range durations {
		v, ok := get(field.key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, field.key, err)
		}
		*field.dst = d
	}

	if v, ok := get("RESPECT_ROBOTS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sRESPECT_ROBOTS: %w", EnvPrefix, err)
		}
		c.Site.RespectRobots = &b
	}

	return nil
}

// defaultFile is written by WriteDefault. Every key is optional; the
// commented values are the built-in defaults.
const defaultFile = `# newsgrab configuration. Environment variables prefixed with NEWSGRAB_
# override these values (e.g. NEWSGRAB_STORAGE_DSN, NEWSGRAB_WORKERS).

site:
  base_url: %s
  # listing_urls:
  #   - %s/
  # feed_url: %s/feed/
  # max_pages: 3
  # max_articles: 0
  # profile_file: ~/.newsgrab/profile.yaml
  # respect_robots: true

storage:
  type: sqlite
  dsn: %s

fetch:
  # user_agent: "..."
  retry:
    max_attempts: 3
    initial_delay: 500ms
    max_delay: 10s
    multiplier: 2
    timeout: 15s

run:
  workers: 1
  # max_images: 5
  # delay_min: 1s
  # delay_max: 3s

log:
  level: info

api:
  addr: ":8080"
`

// WriteDefault writes a commented default config file to path, creating
// its directory. An existing file is left alone unless force is set. It
// reports whether a file was written.
func WriteDefault(path string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := Default()
	content := fmt.Sprintf(defaultFile, cfg.Site.BaseURL, cfg.Site.BaseURL, cfg.Site.BaseURL, cfg.Storage.DSN)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}
