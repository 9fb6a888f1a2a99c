// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StageID identifies one internal pipeline stage. The order is fixed:
// analyze, discover, refine, rank, select.
type StageID string

const (
	StageIDAnalyze  StageID = "analyze"
	StageIDDiscover StageID = "discover"
	StageIDRefine   StageID = "refine"
	StageIDRank     StageID = "rank"
	StageIDSelect   StageID = "select"
)

// stageOrder is the fixed pipeline sequence. Stage status is monotonic along
// this order within a single search run.
var stageOrder = []StageID{
	StageIDAnalyze,
	StageIDDiscover,
	StageIDRefine,
	StageIDRank,
	StageIDSelect,
}

// StageOrder returns the pipeline stages in execution order. The returned
// slice is a copy; callers may not rely on mutating it.
func StageOrder() []StageID {
	out := make([]StageID, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// StageIndex returns the position of id in the pipeline order, or -1 for an
// unknown id.
func StageIndex(id StageID) int {
	for i, s := range stageOrder {
		if s == id {
			return i
		}
	}
	return -1
}

// StageStatus is the derived status of one internal stage.
type StageStatus string

const (
	StatusPending  StageStatus = "pending"
	StatusActive   StageStatus = "active"
	StatusComplete StageStatus = "complete"
	StatusError    StageStatus = "error"
)

// DerivedStageState is the render-ready description of one pipeline stage.
type DerivedStageState struct {
	ID       StageID     `json:"id" yaml:"id"`
	Status   StageStatus `json:"status" yaml:"status"`
	Progress int         `json:"progress" yaml:"progress"`
	Message  string      `json:"message" yaml:"message"`

	// SubstageProgress carries per-source progress for the discover stage
	// (coarse: 0, 50, or 100) and is empty for all other stages.
	SubstageProgress map[string]int `json:"substage_progress,omitempty" yaml:"substage_progress,omitempty"`
}

// SourceNode is a positioned visual descriptor for one federated source.
// Status, count, timing, and error text pass through from the snapshot
// unchanged; the angle is a layout hint assigned by the deriver.
type SourceNode struct {
	ID         string       `json:"id" yaml:"id"`
	Status     SourceStatus `json:"status" yaml:"status"`
	PaperCount int          `json:"paper_count" yaml:"paper_count"`
	TimeMs     int64        `json:"time_ms" yaml:"time_ms"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
	Angle      float64      `json:"angle" yaml:"angle"`
}

// TierNode is a positioned visual descriptor for one semantic-ranking tier.
type TierNode struct {
	ID              string  `json:"id" yaml:"id"`
	PapersProcessed int     `json:"papers_processed" yaml:"papers_processed"`
	ProgressPercent int     `json:"progress_percent" yaml:"progress_percent"`
	IsComplete      bool    `json:"is_complete" yaml:"is_complete"`
	CacheHits       int     `json:"cache_hits" yaml:"cache_hits"`
	LatencyMs       int64   `json:"latency_ms" yaml:"latency_ms"`
	Angle           float64 `json:"angle" yaml:"angle"`
}

// DerivedState is the full render-ready output for one snapshot.
type DerivedState struct {
	Stages []DerivedStageState `json:"stages" yaml:"stages"`

	// Quality is the aggregate search quality score, 0-100.
	Quality int `json:"quality" yaml:"quality"`

	// ETAMillis estimates remaining time; nil when no rate data exists or
	// the search is already terminal.
	ETAMillis *int64 `json:"eta_ms,omitempty" yaml:"eta_ms,omitempty"`

	// RawPaperCount is the pre-deduplication paper total across sources.
	RawPaperCount int `json:"raw_paper_count" yaml:"raw_paper_count"`

	SourceNodes []SourceNode `json:"source_nodes,omitempty" yaml:"source_nodes,omitempty"`
	TierNodes   []TierNode   `json:"tier_nodes,omitempty" yaml:"tier_nodes,omitempty"`
}

// SearchMetrics is the final-metrics snapshot used for the methodology
// report and the session archive.
type SearchMetrics struct {
	SessionID         string       `json:"session_id" yaml:"session_id"`
	Query             string       `json:"query" yaml:"query"`
	PapersFound       int          `json:"papers_found" yaml:"papers_found"`
	RawPaperCount     int          `json:"raw_paper_count" yaml:"raw_paper_count"`
	DuplicatesRemoved int          `json:"duplicates_removed" yaml:"duplicates_removed"`
	SourcesTotal      int          `json:"sources_total" yaml:"sources_total"`
	SourcesComplete   int          `json:"sources_complete" yaml:"sources_complete"`
	ElapsedMs         int64        `json:"elapsed_ms" yaml:"elapsed_ms"`
	SemanticTier      SemanticTier `json:"semantic_tier" yaml:"semantic_tier"`
	Quality           int          `json:"quality" yaml:"quality"`
	Sources           []SourceNode `json:"sources,omitempty" yaml:"sources,omitempty"`
	StartedAt         time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt        time.Time    `json:"finished_at" yaml:"finished_at"`
}
