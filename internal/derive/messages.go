// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package derive

import (
	"fmt"

	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

// stageCopy holds the static message for each stage and status. Discover,
// rank, and select regenerate their active/complete messages with live
// counts in stageMessage.
var stageCopy = map[types.StageID]map[types.StageStatus]string{
	types.StageIDAnalyze: {
		types.StatusPending:  "Waiting to analyze query",
		types.StatusActive:   "Analyzing query intent…",
		types.StatusComplete: "Query analyzed",
	},
	types.StageIDDiscover: {
		types.StatusPending:  "Sources on standby",
		types.StatusActive:   "Searching sources…",
		types.StatusComplete: "Discovery finished",
	},
	types.StageIDRefine: {
		types.StatusPending:  "Awaiting refinement",
		types.StatusActive:   "Merging and deduplicating results…",
		types.StatusComplete: "Results refined",
	},
	types.StageIDRank: {
		types.StatusPending:  "AI ranking queued",
		types.StatusActive:   "Scoring papers with AI…",
		types.StatusComplete: "Papers scored",
	},
	types.StageIDSelect: {
		types.StatusPending:  "Selection pending",
		types.StatusActive:   "Selecting the best papers…",
		types.StatusComplete: "Selection finished",
	},
}

// stageMessage returns the display message for a stage, embedding live counts
// where the stage has them. raw is the pre-deduplication paper total.
func stageMessage(snap types.PipelineSnapshot, id types.StageID, status types.StageStatus, raw int) string {
	switch id {
	case types.StageIDDiscover:
		if status == types.StatusActive && raw > 0 {
			return fmt.Sprintf("%d papers collected so far…", raw)
		}
		if status == types.StatusComplete && raw > 0 {
			return fmt.Sprintf("%d papers collected", raw)
		}
	case types.StageIDRank:
		if status == types.StatusActive && raw > 0 {
			return fmt.Sprintf("Scoring %d papers with AI…", raw)
		}
		if status == types.StatusComplete && raw > 0 {
			return fmt.Sprintf("%d papers scored", raw)
		}
	case types.StageIDSelect:
		if status == types.StatusActive && raw > 0 {
			return fmt.Sprintf("Selecting the best of %d papers…", raw)
		}
		if status == types.StatusComplete && snap.PapersFound > 0 {
			return fmt.Sprintf("Top %d selected!", snap.PapersFound)
		}
	}
	return stageCopy[id][status]
}
