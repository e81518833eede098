package scraper

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultProfile_IsValid(t *testing.T) {
	assert.NoError(t, DefaultProfile().Validate())
}

func TestDefaultProfile_ReturnsFreshCopies(t *testing.T) {
	a := DefaultProfile()
	a.Probes.Title[0].Selector = "changed"
	a.List.ListingURLs = nil

	b := DefaultProfile()
	assert.Equal(t, "h1.entry-title", b.Probes.Title[0].Selector)
	assert.NotEmpty(t, b.List.ListingURLs)
}

func TestLoadProfile_OverlaysDefaults(t *testing.T) {
	path := writeProfile(t, `
base_url: https://news.example.org
probes:
  title:
    - name: headline
      selector: h1.headline
list:
  listing_urls:
    - https://news.example.org/latest/
  max_pages: 7
politeness:
  page_delay_min: 2s
  page_delay_max: 4s
max_images: 2
`)

	profile, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://news.example.org", profile.BaseURL)
	assert.Equal(t, []FieldProbe{{Name: "headline", Selector: "h1.headline"}}, profile.Probes.Title)
	assert.Equal(t, DefaultProfile().Probes.Content, profile.Probes.Content, "lists absent from the file keep defaults")
	assert.Equal(t, []string{"https://news.example.org/latest/"}, profile.List.ListingURLs)
	assert.Equal(t, 7, profile.List.MaxPages)
	assert.Equal(t, DefaultProfile().List.PaginationFormats, profile.List.PaginationFormats)
	assert.Equal(t, 2*time.Second, profile.Politeness.PageDelayMin)
	assert.Equal(t, 4*time.Second, profile.Politeness.PageDelayMax)
	assert.Equal(t, 2, profile.MaxImages)
}

func TestLoadProfile_Errors(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadProfile(writeProfile(t, "probes: [not, a, map"))
	assert.Error(t, err)

	_, err = LoadProfile(writeProfile(t, "probes:\n  content: []\n"))
	assert.ErrorIs(t, err, ErrNoContentProbes)
}

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Profile)
		want   error
	}{
		{"no base url", func(p *Profile) { p.BaseURL = "" }, ErrNoBaseURL},
		{"no title probes", func(p *Profile) { p.Probes.Title = nil }, ErrNoTitleProbes},
		{"no content probes", func(p *Profile) { p.Probes.Content = nil }, ErrNoContentProbes},
		{"page delay range", func(p *Profile) { p.Politeness.PageDelayMin = 5 * time.Second }, ErrDelayRange},
		{"article delay range", func(p *Profile) {
			p.Politeness.ArticleDelayMin = 2 * time.Second
			p.Politeness.ArticleDelayMax = time.Second
		}, ErrDelayRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile()
			tt.modify(p)
			assert.ErrorIs(t, p.Validate(), tt.want)
		})
	}
}

func TestProfile_ValidateBadPattern(t *testing.T) {
	p := DefaultProfile()
	p.Classifier.SoftExclusions = append(p.Classifier.SoftExclusions, "([")
	assert.Error(t, p.Validate())
}
