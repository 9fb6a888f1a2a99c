// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package derive

import (
	"math"
	"sort"

	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

// SourceNodes maps the per-source stats onto orbital node descriptors. The
// backend's status, count, timing, and error fields pass through unchanged;
// nodes are sorted by source id and spaced evenly around the orbit so the
// layout is stable across snapshots.
func SourceNodes(snap types.PipelineSnapshot) []types.SourceNode {
	if len(snap.SourceStats) == 0 {
		return nil
	}

	ids := make([]string, 0, len(snap.SourceStats))
	for id := range snap.SourceStats {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nodes := make([]types.SourceNode, 0, len(ids))
	for i, id := range ids {
		src := snap.SourceStats[id]
		nodes = append(nodes, types.SourceNode{
			ID:         id,
			Status:     src.Status,
			PaperCount: src.PaperCount,
			TimeMs:     src.TimeMs,
			Error:      src.Error,
			Angle:      orbitAngle(i, len(ids)),
		})
	}
	return nodes
}

// TierNodes maps the per-tier ranking stats onto node descriptors, sorted in
// tier order (immediate, refined, complete) with unknown tiers last.
func TierNodes(snap types.PipelineSnapshot) []types.TierNode {
	if len(snap.SemanticTierStats) == 0 {
		return nil
	}

	ids := make([]string, 0, len(snap.SemanticTierStats))
	for id := range snap.SemanticTierStats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ri, rj := tierRank(ids[i]), tierRank(ids[j])
		if ri != rj {
			return ri < rj
		}
		return ids[i] < ids[j]
	})

	nodes := make([]types.TierNode, 0, len(ids))
	for i, id := range ids {
		tier := snap.SemanticTierStats[id]
		nodes = append(nodes, types.TierNode{
			ID:              id,
			PapersProcessed: tier.PapersProcessed,
			ProgressPercent: tier.ProgressPercent,
			IsComplete:      tier.IsComplete,
			CacheHits:       tier.CacheHits,
			LatencyMs:       tier.LatencyMs,
			Angle:           orbitAngle(i, len(ids)),
		})
	}
	return nodes
}

func tierRank(id string) int {
	switch types.SemanticTier(id) {
	case types.TierImmediate:
		return 0
	case types.TierRefined:
		return 1
	case types.TierComplete:
		return 2
	default:
		return 3
	}
}

func orbitAngle(i, n int) float64 {
	if n == 0 {
		return 0
	}
	return 2 * math.Pi * float64(i) / float64(n)
}
