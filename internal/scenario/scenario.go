// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scenario reads and writes recorded snapshot streams. A scenario
// file captures a real search run as an ordered list of timed snapshots, so
// a run can be replayed through the deriver without a live backend.
package scenario

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

// Scenario is the on-disk representation of one recorded search run.
type Scenario struct {
	// Query is the research question that produced this run.
	Query string `yaml:"query"`

	RecordedAt time.Time `yaml:"recorded_at,omitempty"`

	// Frames holds the snapshots in delivery order.
	Frames []Frame `yaml:"frames"`
}

// Frame is one snapshot with its offset from the start of the run.
type Frame struct {
	AtMs     int64                  `yaml:"at_ms"`
	Snapshot types.PipelineSnapshot `yaml:"snapshot"`
}

// Read loads a scenario from a YAML file and validates frame ordering.
func Read(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario file: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	// Stage strings come off the wire unvalidated; normalize unknown values
	// to the none/unrecognized variants at the boundary.
	for i := range sc.Frames {
		snap := &sc.Frames[i].Snapshot
		snap.Stage = types.ParseSearchStage(string(snap.Stage))
		snap.SemanticTier = types.ParseSemanticTier(string(snap.SemanticTier))
	}
	return &sc, nil
}

// Write saves a scenario to a YAML file.
func Write(path string, sc Scenario) error {
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("refusing to write invalid scenario: %w", err)
	}
	data, err := yaml.Marshal(&sc)
	if err != nil {
		return fmt.Errorf("marshaling scenario: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks structural requirements: at least one frame, offsets
// non-negative and non-decreasing.
func (sc Scenario) Validate() error {
	if len(sc.Frames) == 0 {
		return fmt.Errorf("scenario has no frames")
	}
	var prev int64 = -1
	for i, f := range sc.Frames {
		if f.AtMs < 0 {
			return fmt.Errorf("frame %d: negative offset %d", i, f.AtMs)
		}
		if f.AtMs < prev {
			return fmt.Errorf("frame %d: offset %d before previous %d", i, f.AtMs, prev)
		}
		prev = f.AtMs
	}
	return nil
}

// Final returns the last frame's snapshot, which carries the run's terminal
// metrics.
func (sc Scenario) Final() types.PipelineSnapshot {
	if len(sc.Frames) == 0 {
		return types.PipelineSnapshot{}
	}
	return sc.Frames[len(sc.Frames)-1].Snapshot
}
