// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures exchanged between the
// search backend (producer), the derivation core, and the rendering layer.
package types

// SearchStage is the stage vocabulary emitted by the search backend. It is a
// closed set; anything outside it normalizes to StageNone at the boundary.
type SearchStage string

const (
	// StageNone means the search has not started or the producer sent an
	// unrecognized stage value.
	StageNone          SearchStage = ""
	StageAnalyzing     SearchStage = "analyzing"
	StageFastSources   SearchStage = "fast-sources"
	StageMediumSources SearchStage = "medium-sources"
	StageSlowSources   SearchStage = "slow-sources"
	StageRanking       SearchStage = "ranking"
	StageSelecting     SearchStage = "selecting"
	StageComplete      SearchStage = "complete"
)

// ParseSearchStage normalizes a raw stage string from the wire. Unknown or
// empty values map to StageNone rather than propagating as open strings.
func ParseSearchStage(s string) SearchStage {
	switch SearchStage(s) {
	case StageAnalyzing, StageFastSources, StageMediumSources,
		StageSlowSources, StageRanking, StageSelecting, StageComplete:
		return SearchStage(s)
	default:
		return StageNone
	}
}

// SourceStatus is the per-source search state reported by the backend.
type SourceStatus string

const (
	SourcePending   SourceStatus = "pending"
	SourceSearching SourceStatus = "searching"
	SourceComplete  SourceStatus = "complete"
	SourceError     SourceStatus = "error"
	SourceSkipped   SourceStatus = "skipped"
)

// SemanticTier identifies a progressive semantic-ranking pass. The backend
// runs up to three tiers trading latency for depth.
type SemanticTier string

const (
	TierNone      SemanticTier = ""
	TierImmediate SemanticTier = "immediate"
	TierRefined   SemanticTier = "refined"
	TierComplete  SemanticTier = "complete"
)

// ParseSemanticTier normalizes a raw tier string; unknown values map to TierNone.
func ParseSemanticTier(s string) SemanticTier {
	switch SemanticTier(s) {
	case TierImmediate, TierRefined, TierComplete:
		return SemanticTier(s)
	default:
		return TierNone
	}
}

// SourceStats holds the backend's progress report for one federated source.
type SourceStats struct {
	Status     SourceStatus `json:"status" yaml:"status"`
	PaperCount int          `json:"paper_count" yaml:"paper_count"`
	TimeMs     int64        `json:"time_ms" yaml:"time_ms"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// TierStats holds the backend's progress report for one semantic-ranking tier.
type TierStats struct {
	PapersProcessed int   `json:"papers_processed" yaml:"papers_processed"`
	ProgressPercent int   `json:"progress_percent" yaml:"progress_percent"`
	IsComplete      bool  `json:"is_complete" yaml:"is_complete"`
	CacheHits       int   `json:"cache_hits" yaml:"cache_hits"`
	LatencyMs       int64 `json:"latency_ms" yaml:"latency_ms"`
}

// PipelineSnapshot is the full progress snapshot the backend delivers on
// every update. It is a complete state, not a diff; missing maps and zero
// totals are valid and mean "no data yet".
type PipelineSnapshot struct {
	// IsSearching reports whether the backend process is currently running.
	IsSearching bool `json:"is_searching" yaml:"is_searching"`

	// Stage is the backend's current stage, or StageNone before start.
	Stage SearchStage `json:"stage" yaml:"stage"`

	// Percent is a generic 0-100 progress fallback used when no
	// stage-specific computation applies.
	Percent float64 `json:"percent" yaml:"percent"`

	// SourceStats maps source identifier to its progress report.
	SourceStats map[string]SourceStats `json:"source_stats,omitempty" yaml:"source_stats,omitempty"`

	// SourcesComplete and SourcesTotal drive discover-stage progress.
	SourcesComplete int `json:"sources_complete" yaml:"sources_complete"`
	SourcesTotal    int `json:"sources_total" yaml:"sources_total"`

	// PapersFound is the post-selection paper count.
	PapersFound int `json:"papers_found" yaml:"papers_found"`

	ElapsedMs int64 `json:"elapsed_ms" yaml:"elapsed_ms"`

	// SemanticTier is the ranking tier currently in flight, or TierNone.
	SemanticTier SemanticTier `json:"semantic_tier,omitempty" yaml:"semantic_tier,omitempty"`

	// SemanticTierStats maps tier identifier to its progress report.
	SemanticTierStats map[string]TierStats `json:"semantic_tier_stats,omitempty" yaml:"semantic_tier_stats,omitempty"`

	// Selection-stage fields; zero until the select stage runs.
	SelectionRankedCount   int     `json:"selection_ranked_count,omitempty" yaml:"selection_ranked_count,omitempty"`
	SelectionSelectedCount int     `json:"selection_selected_count,omitempty" yaml:"selection_selected_count,omitempty"`
	SelectionAvgQuality    float64 `json:"selection_avg_quality,omitempty" yaml:"selection_avg_quality,omitempty"`
}

// RawPaperCount sums PaperCount across all sources. This is the raw
// pre-deduplication count used for live messages and stabilization tracking.
func (s PipelineSnapshot) RawPaperCount() int {
	total := 0
	for _, src := range s.SourceStats {
		total += src.PaperCount
	}
	return total
}

// IsComplete reports whether the backend reached its terminal stage.
func (s PipelineSnapshot) IsComplete() bool {
	return s.Stage == StageComplete
}
