// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package derive maps backend progress snapshots to render-ready pipeline
// state. Every function is a pure transform over one PipelineSnapshot: no
// state is held between calls, no I/O happens, and partial input degrades to
// documented zero/nil fallbacks instead of failing. The deriver runs on
// every backend update against a live, possibly-incomplete event stream.
package derive

import (
	"math"

	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

// currentIndex maps the backend stage to a position in the internal pipeline
// order, or -1 when no stage is current. All three discovery speed classes
// collapse into the discover stage; the terminal stage pins to select.
func currentIndex(stage types.SearchStage) int {
	switch stage {
	case types.StageAnalyzing:
		return types.StageIndex(types.StageIDAnalyze)
	case types.StageFastSources, types.StageMediumSources, types.StageSlowSources:
		return types.StageIndex(types.StageIDDiscover)
	case types.StageRanking:
		return types.StageIndex(types.StageIDRank)
	case types.StageSelecting, types.StageComplete:
		return types.StageIndex(types.StageIDSelect)
	default:
		return -1
	}
}

// Stages derives the full ordered stage list for one snapshot.
func Stages(snap types.PipelineSnapshot) []types.DerivedStageState {
	order := types.StageOrder()
	out := make([]types.DerivedStageState, 0, len(order))

	cur := currentIndex(snap.Stage)
	raw := snap.RawPaperCount()

	for i, id := range order {
		status := stageStatus(snap, id, i, cur)
		state := types.DerivedStageState{
			ID:       id,
			Status:   status,
			Progress: stageProgress(snap, id, status),
			Message:  stageMessage(snap, id, status, raw),
		}
		if id == types.StageIDDiscover {
			state.SubstageProgress = substageProgress(snap)
		}
		out = append(out, state)
	}
	return out
}

// stageStatus derives the status of one stage given the current pipeline
// position. Stages before the current index are complete, the current one is
// active, later ones are pending.
func stageStatus(snap types.PipelineSnapshot, id types.StageID, idx, cur int) types.StageStatus {
	if !snap.IsSearching && !snap.IsComplete() {
		return types.StatusPending
	}
	if snap.IsComplete() {
		return types.StatusComplete
	}

	// No backend stage corresponds to refine, so it is shown active for the
	// whole ranking phase to bridge discover and rank visually. This is an
	// approximation: replace it if the producer ever emits a refine event.
	if id == types.StageIDRefine &&
		cur > types.StageIndex(types.StageIDDiscover) &&
		snap.Stage == types.StageRanking {
		return types.StatusActive
	}

	switch {
	case cur < 0:
		return types.StatusPending
	case idx < cur:
		return types.StatusComplete
	case idx == cur:
		return types.StatusActive
	default:
		return types.StatusPending
	}
}

// stageProgress computes the 0-100 progress for one stage. Only active
// stages carry a computed value; complete stages report 100 and pending 0.
func stageProgress(snap types.PipelineSnapshot, id types.StageID, status types.StageStatus) int {
	switch status {
	case types.StatusComplete:
		return 100
	case types.StatusActive:
	default:
		return 0
	}

	switch id {
	case types.StageIDAnalyze:
		if snap.Stage == types.StageAnalyzing {
			return 50
		}
		return 100
	case types.StageIDDiscover:
		if snap.SourcesTotal == 0 {
			return 0
		}
		return clampPercent(float64(snap.SourcesComplete) / float64(snap.SourcesTotal) * 100)
	case types.StageIDRank:
		switch snap.SemanticTier {
		case types.TierImmediate:
			return 33
		case types.TierRefined:
			return 66
		case types.TierComplete:
			return 100
		}
		return clampPercent(snap.Percent)
	default:
		return clampPercent(snap.Percent)
	}
}

// substageProgress maps each source onto a coarse three-point scale: 100 for
// complete, 50 while searching, 0 otherwise. Source-internal progress is not
// observable, so anything finer would be invented.
func substageProgress(snap types.PipelineSnapshot) map[string]int {
	if len(snap.SourceStats) == 0 {
		return nil
	}
	out := make(map[string]int, len(snap.SourceStats))
	for id, src := range snap.SourceStats {
		switch src.Status {
		case types.SourceComplete:
			out[id] = 100
		case types.SourceSearching:
			out[id] = 50
		default:
			out[id] = 0
		}
	}
	return out
}

// Derive bundles the stage list, aggregate metrics, and node descriptors for
// one snapshot.
func Derive(snap types.PipelineSnapshot) types.DerivedState {
	return types.DerivedState{
		Stages:        Stages(snap),
		Quality:       QualityScore(snap),
		ETAMillis:     ETA(snap),
		RawPaperCount: snap.RawPaperCount(),
		SourceNodes:   SourceNodes(snap),
		TierNodes:     TierNodes(snap),
	}
}

func clampPercent(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
