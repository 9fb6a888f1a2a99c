// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

func testConfig() types.StabilizerConfig {
	return types.StabilizerConfig{
		QuietPeriod: 80 * time.Millisecond,
		GracePeriod: 250 * time.Millisecond,
	}
}

func searchingSnap(raw int) types.PipelineSnapshot {
	return types.PipelineSnapshot{
		IsSearching: true,
		Stage:       types.StageFastSources,
		SourceStats: map[string]types.SourceStats{
			"arxiv": {Status: types.SourceSearching, PaperCount: raw},
		},
		SourcesTotal: 1,
	}
}

func TestApplyDerivesFrame(t *testing.T) {
	s := New(testConfig())
	defer s.Close()

	up := s.Apply(searchingSnap(40))
	require.Len(t, up.State.Stages, 5)
	assert.Equal(t, s.ID(), up.SessionID)
	assert.Equal(t, 40, up.State.RawPaperCount)
	assert.False(t, up.PapersStabilized, "fresh count must not be settled yet")
}

func TestStabilizationFlowsThroughSession(t *testing.T) {
	s := New(testConfig())
	defer s.Close()

	s.Apply(searchingSnap(40))
	time.Sleep(2 * testConfig().QuietPeriod)

	up := s.Apply(searchingSnap(40))
	assert.True(t, up.PapersStabilized, "steady count should settle after the quiet period")

	up = s.Apply(searchingSnap(55))
	assert.False(t, up.PapersStabilized, "count movement must drop the settled signal")
}

func TestNewSearchResetsDetector(t *testing.T) {
	s := New(testConfig())
	defer s.Close()

	s.Apply(searchingSnap(40))
	time.Sleep(2 * testConfig().QuietPeriod)
	require.True(t, s.Apply(searchingSnap(40)).PapersStabilized)

	// The run finishes, then a new one starts with the same raw count. The
	// detector must start clean instead of treating 40 as already settled.
	done := searchingSnap(40)
	done.IsSearching = false
	done.Stage = types.StageComplete
	s.Apply(done)

	up := s.Apply(searchingSnap(40))
	assert.False(t, up.PapersStabilized, "new run inherited the previous run's settled signal")
}

func TestLatestServesLateJoiners(t *testing.T) {
	s := New(testConfig())
	defer s.Close()

	s.Apply(searchingSnap(40))
	up := s.Latest()
	assert.Equal(t, 40, up.State.RawPaperCount)
	assert.Equal(t, s.ID(), up.SessionID)
}

func TestMetrics(t *testing.T) {
	s := New(testConfig())
	defer s.Close()

	snap := types.PipelineSnapshot{
		Stage:       types.StageComplete,
		PapersFound: 12,
		SourceStats: map[string]types.SourceStats{
			"arxiv":    {Status: types.SourceComplete, PaperCount: 30},
			"openalex": {Status: types.SourceComplete, PaperCount: 20},
		},
		SourcesTotal:    2,
		SourcesComplete: 2,
		ElapsedMs:       9500,
		SemanticTier:    types.TierComplete,
	}
	s.Apply(snap)

	m := s.Metrics("transformer attention")
	assert.Equal(t, "transformer attention", m.Query)
	assert.Equal(t, 12, m.PapersFound)
	assert.Equal(t, 50, m.RawPaperCount)
	assert.Equal(t, 38, m.DuplicatesRemoved)
	assert.Equal(t, int64(9500), m.ElapsedMs)
	assert.Len(t, m.Sources, 2)
	// Full coverage (30) + complete tier (40) + 12/200 papers (~2).
	assert.Equal(t, 72, m.Quality)
}
