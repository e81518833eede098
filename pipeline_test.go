package newsgrab

import (
	"context"
	"errors"
	"testing"

	"github.com/pevans/newsgrab/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiscoverer struct {
	set *discovery.CandidateSet
	err error
}

func (d fakeDiscoverer) Discover(context.Context) (*discovery.CandidateSet, error) {
	return d.set, d.err
}

func TestPipeline_NoURLs(t *testing.T) {
	runner := NewRunner(newFakeSource(), createRunnerStore(t), RunnerOptions{})

	for name, d := range map[string]fakeDiscoverer{
		"empty set":       {set: discovery.NewCandidateSet()},
		"discovery error": {set: discovery.NewCandidateSet(), err: discovery.ErrNoListingPages},
		"nil set":         {err: errors.New("boom")},
	} {
		t.Run(name, func(t *testing.T) {
			result := NewPipeline(d, runner, nil).Run(context.Background())
			assert.Equal(t, ErrNoURLs, result.Error)
			assert.Nil(t, result.Stats)
		})
	}
}

func TestPipeline_RunsCandidates(t *testing.T) {
	set := discovery.NewCandidateSet()
	set.Add(discovery.Candidate{URL: "https://example.com/news/one", Confidence: discovery.ConfidenceHigh})
	set.Add(discovery.Candidate{URL: "https://example.com/news/two", Confidence: discovery.ConfidenceLow})

	source := newFakeSource()
	runner := NewRunner(source, createRunnerStore(t), RunnerOptions{})

	result := NewPipeline(fakeDiscoverer{set: set}, runner, nil).Run(context.Background())
	assert.Empty(t, result.Error)
	assert.Equal(t, 2, result.Candidates)
	assert.Equal(t, 1, result.LowConfidence)
	require.NotNil(t, result.Stats)
	assert.Equal(t, 2, result.Stats.Success)
}

func TestPipeline_PartialDiscoveryStillRuns(t *testing.T) {
	set := discovery.NewCandidateSet()
	set.Add(discovery.Candidate{URL: "https://example.com/news/one", Confidence: discovery.ConfidenceHigh})

	runner := NewRunner(newFakeSource(), createRunnerStore(t), RunnerOptions{})

	result := NewPipeline(fakeDiscoverer{set: set, err: context.DeadlineExceeded}, runner, nil).Run(context.Background())
	require.NotNil(t, result.Stats)
	assert.Equal(t, 1, result.Stats.Success)
}
