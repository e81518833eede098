package scraper

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// Profile validation errors.
var (
	ErrNoBaseURL       = errors.New("profile base_url is required")
	ErrNoTitleProbes   = errors.New("profile needs at least one title probe")
	ErrNoContentProbes = errors.New("profile needs at least one content probe")
	ErrDelayRange      = errors.New("politeness delay minimum exceeds maximum")
)

// LoadProfile reads a YAML profile from path and overlays it on the default
// profile. Lists present in the file replace the default lists entirely.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	profile := DefaultProfile()
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return profile, nil
}

// Validate checks that the profile can drive a run.
func (p *Profile) Validate() error {
	if p.BaseURL == "" {
		return ErrNoBaseURL
	}
	if len(p.Probes.Title) == 0 {
		return ErrNoTitleProbes
	}
	if len(p.Probes.Content) == 0 {
		return ErrNoContentProbes
	}
	if p.Politeness.PageDelayMin > p.Politeness.PageDelayMax ||
		p.Politeness.ArticleDelayMin > p.Politeness.ArticleDelayMax {
		return ErrDelayRange
	}

	for _, pattern := range slices.Concat(p.Classifier.Exclusions, p.Classifier.SoftExclusions) {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid exclusion pattern %q: %w", pattern, err)
		}
	}

	return nil
}
