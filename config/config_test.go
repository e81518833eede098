package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pevans/newsgrab/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestDefault_IsValid verifies the defaults pass validation
func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

// TestValidate covers each validation error
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{"storage type", func(c *Config) { c.Storage.Type = "file" }, ErrInvalidStorageType},
		{"missing dsn", func(c *Config) { c.Storage.DSN = "" }, ErrMissingDSN},
		{"workers", func(c *Config) { c.Run.Workers = 0 }, ErrInvalidWorkers},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, ErrInvalidLogLevel},
		{"retry", func(c *Config) { c.Fetch.Retry.MaxAttempts = 0 }, ErrInvalidRetry},
		{"api addr", func(c *Config) { c.API.Addr = "" }, ErrMissingAPIAddr},
		{"delay range", func(c *Config) {
			c.Run.DelayMin = 5 * time.Second
			c.Run.DelayMax = time.Second
		}, scraper.ErrDelayRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

// TestBuildProfile_Default verifies the built-in profile is used unchanged
func TestBuildProfile_Default(t *testing.T) {
	profile, err := Default().BuildProfile()
	require.NoError(t, err)

	assert.Equal(t, scraper.DefaultProfile(), profile)
}

// TestBuildProfile_SiteOverrides verifies site settings replace profile values
func TestBuildProfile_SiteOverrides(t *testing.T) {
	robots := false
	cfg := Default()
	cfg.Site.BaseURL = "https://news.example.com"
	cfg.Site.MaxPages = 7
	cfg.Site.MaxArticles = 12
	cfg.Site.FeedURL = "https://news.example.com/feed/"
	cfg.Site.RespectRobots = &robots
	cfg.Run.MaxImages = -1
	cfg.Run.DelayMin = 0
	cfg.Run.DelayMax = 500 * time.Millisecond

	profile, err := cfg.BuildProfile()
	require.NoError(t, err)

	assert.Equal(t, "https://news.example.com", profile.BaseURL)
	assert.Equal(t, []string{"https://news.example.com/"}, profile.List.ListingURLs)
	assert.Equal(t, 7, profile.List.MaxPages)
	assert.Equal(t, 12, profile.List.MaxArticles)
	assert.Equal(t, "https://news.example.com/feed/", profile.List.FeedURL)
	assert.False(t, profile.List.RespectRobots)
	assert.Equal(t, -1, profile.MaxImages)
	assert.Equal(t, 500*time.Millisecond, profile.Politeness.ArticleDelayMax)
}

// TestBuildProfile_InlineOverlay verifies an inline profile replaces lists
func TestBuildProfile_InlineOverlay(t *testing.T) {
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(`
storage:
  type: sqlite
  dsn: x.db
profile:
  probes:
    title:
      - name: headline
        selector: ".headline"
`), &cfg))

	profile, err := cfg.BuildProfile()
	require.NoError(t, err)

	require.Len(t, profile.Probes.Title, 1)
	assert.Equal(t, ".headline", profile.Probes.Title[0].Selector)
	assert.NotEmpty(t, profile.Probes.Content, "lists absent from the overlay keep their defaults")
}

// TestBuildProfile_File verifies a profile file is loaded
func TestBuildProfile_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`base_url: "https://blog.example.org"
max_images: 2
`), 0o600))

	cfg := Default()
	cfg.Site.BaseURL = ""
	cfg.Site.ProfileFile = path

	profile, err := cfg.BuildProfile()
	require.NoError(t, err)
	assert.Equal(t, "https://blog.example.org", profile.BaseURL)
	assert.Equal(t, 2, profile.MaxImages)
}

// TestBuildProfile_BadFile verifies a missing profile file is an error
func TestBuildProfile_BadFile(t *testing.T) {
	cfg := Default()
	cfg.Site.ProfileFile = filepath.Join(t.TempDir(), "nope.yaml")

	_, err := cfg.BuildProfile()
	assert.Error(t, err)
}
