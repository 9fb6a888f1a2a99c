// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session ties the stage deriver and the count stabilizer into one
// visualization session with an explicit create/apply/teardown lifecycle.
// Nothing here is a global: callers own the Session and pass it where it is
// needed, which keeps the deriver and detector independently testable.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/pipeline-orchestra/internal/derive"
	"github.com/pdiddy/pipeline-orchestra/internal/stabilize"
	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

// Update is the full frame pushed to the rendering layer after each applied
// snapshot.
type Update struct {
	SessionID string             `json:"session_id"`
	State     types.DerivedState `json:"state"`

	// PapersStabilized gates the switch from "collecting" to "settled"
	// animation semantics for the raw paper counter.
	PapersStabilized bool `json:"papers_stabilized"`

	At time.Time `json:"at"`
}

// Session holds per-run state for one visualization consumer. It owns one
// stabilization detector tracking the raw paper count and resets it whenever
// a new search begins.
type Session struct {
	mu sync.Mutex

	id        string
	cfg       stabilize.Config
	detector  *stabilize.Detector
	startedAt time.Time

	lastSnap      types.PipelineSnapshot
	lastState     types.DerivedState
	lastSearching bool
	stabilized    bool
}

// New creates a session with a fresh detector.
func New(cfg types.StabilizerConfig) *Session {
	sc := stabilize.Config{QuietPeriod: cfg.QuietPeriod, GracePeriod: cfg.GracePeriod}
	return &Session{
		id:        uuid.NewString(),
		cfg:       sc,
		detector:  stabilize.New(sc),
		startedAt: time.Now(),
	}
}

// Apply derives the render state for one snapshot, feeds the raw paper count
// into the detector, and returns the resulting frame. A searching edge
// (false to true) starts a new run: the detector is replaced so counts from
// the previous run cannot leak into this one.
func (s *Session) Apply(snap types.PipelineSnapshot) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.IsSearching && !s.lastSearching {
		s.detector.Close()
		s.detector = stabilize.New(s.cfg)
		s.startedAt = time.Now()
	}
	s.lastSearching = snap.IsSearching

	state := derive.Derive(snap)
	s.stabilized = s.detector.Observe(state.RawPaperCount, snap.IsSearching)
	s.lastSnap = snap
	s.lastState = state

	return Update{
		SessionID:        s.id,
		State:            state,
		PapersStabilized: s.stabilized,
		At:               time.Now(),
	}
}

// Latest returns the most recently derived frame, for late-joining viewers.
func (s *Session) Latest() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Update{
		SessionID:        s.id,
		State:            s.lastState,
		PapersStabilized: s.stabilized,
		At:               time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Metrics builds the final-metrics snapshot for the methodology report and
// the session archive. The duplicate count is the gap between the raw
// pre-dedup total and the post-selection paper count.
func (s *Session) Metrics(query string) types.SearchMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.lastSnap
	raw := snap.RawPaperCount()
	dups := raw - snap.PapersFound
	if dups < 0 {
		dups = 0
	}

	return types.SearchMetrics{
		SessionID:         s.id,
		Query:             query,
		PapersFound:       snap.PapersFound,
		RawPaperCount:     raw,
		DuplicatesRemoved: dups,
		SourcesTotal:      snap.SourcesTotal,
		SourcesComplete:   snap.SourcesComplete,
		ElapsedMs:         snap.ElapsedMs,
		SemanticTier:      snap.SemanticTier,
		Quality:           derive.QualityScore(snap),
		Sources:           derive.SourceNodes(snap),
		StartedAt:         s.startedAt,
		FinishedAt:        time.Now(),
	}
}

// Close tears the session down, cancelling any pending detector timers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detector.Close()
}
