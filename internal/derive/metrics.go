// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package derive

import (
	"math"

	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

// Quality score weights. Fixed constants; their sum caps the score at 100.
const (
	coverageWeight = 30
	volumeWeight   = 30
	depthWeight    = 40

	// volumeSaturation is the paper count at which the volume term maxes out.
	volumeSaturation = 200
)

// etaBufferMs pads the ETA to absorb post-discovery stages. The buffer is
// dropped during ranking, where the per-source rate model no longer applies.
const etaBufferMs = 2000

// QualityScore computes the aggregate search quality, 0-100: source coverage
// (30), paper volume saturating at 200 papers (30), and semantic depth by
// ranking tier (40). Each component is clamped before weighting.
func QualityScore(snap types.PipelineSnapshot) int {
	var score float64

	if snap.SourcesTotal > 0 {
		coverage := float64(snap.SourcesComplete) / float64(snap.SourcesTotal)
		score += clamp01(coverage) * coverageWeight
	}

	volume := float64(snap.PapersFound) / volumeSaturation
	score += clamp01(volume) * volumeWeight

	switch snap.SemanticTier {
	case types.TierImmediate:
		score += 15
	case types.TierRefined:
		score += 30
	case types.TierComplete:
		score += depthWeight
	}

	total := int(math.Round(score))
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return total
}

// ETA estimates remaining milliseconds from the average time per completed
// source. It returns nil when the search is terminal or no rate data exists
// yet (zero totals or zero completed sources).
func ETA(snap types.PipelineSnapshot) *int64 {
	if snap.IsComplete() || snap.SourcesTotal == 0 || snap.SourcesComplete == 0 {
		return nil
	}

	avgPerSource := float64(snap.ElapsedMs) / float64(snap.SourcesComplete)
	estimated := avgPerSource * float64(snap.SourcesTotal-snap.SourcesComplete)
	if snap.Stage != types.StageRanking {
		estimated += etaBufferMs
	}

	ms := int64(math.Round(estimated))
	return &ms
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
