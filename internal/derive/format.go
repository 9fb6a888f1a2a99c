// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package derive

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

// FormatTable writes the derived state as a human-readable table to w.
func FormatTable(state types.DerivedState, w io.Writer) {
	fmt.Fprintf(w, "%-10s  %-9s  %-5s  %s\n", "Stage", "Status", "Prog", "Message")
	fmt.Fprintln(w, strings.Repeat("-", 70))

	for _, s := range state.Stages {
		fmt.Fprintf(w, "%-10s  %-9s  %4d%%  %s\n", s.ID, s.Status, s.Progress, s.Message)
	}

	fmt.Fprintf(w, "\nQuality %d/100", state.Quality)
	if state.RawPaperCount > 0 {
		fmt.Fprintf(w, "  |  %d papers (raw)", state.RawPaperCount)
	}
	if state.ETAMillis != nil {
		fmt.Fprintf(w, "  |  ETA %v", time.Duration(*state.ETAMillis)*time.Millisecond)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the derived state as indented JSON to w.
func FormatJSON(state types.DerivedState, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}
