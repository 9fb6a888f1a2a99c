// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

func TestRenderEscapesQuery(t *testing.T) {
	var buf bytes.Buffer
	m := types.SearchMetrics{
		Query: `<script>alert(1)</script>`,
	}
	if err := Render(&buf, m); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	html := buf.String()
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("query string reached the output as executable markup")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("query string was not entity-escaped in the output")
	}
}

func TestRenderEscapesSourceError(t *testing.T) {
	var buf bytes.Buffer
	m := types.SearchMetrics{
		Sources: []types.SourceNode{
			{ID: "pubmed", Status: types.SourceError, Error: `<img src=x onerror="alert(1)">`},
		},
	}
	if err := Render(&buf, m); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(buf.String(), `<img src=x`) {
		t.Error("source error message reached the output unescaped")
	}
}

func TestRenderZeroMetrics(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, types.SearchMetrics{}); err != nil {
		t.Fatalf("Render() on zero metrics error = %v", err)
	}

	html := buf.String()
	for _, want := range []string{"<!DOCTYPE html>", "Search Methodology Report", "No query recorded", "0/100"} {
		if !strings.Contains(html, want) {
			t.Errorf("zero-metrics report missing %q", want)
		}
	}
}

func TestRenderFullMetrics(t *testing.T) {
	var buf bytes.Buffer
	m := types.SearchMetrics{
		SessionID:         "abc-123",
		Query:             "graph neural networks",
		PapersFound:       15,
		RawPaperCount:     120,
		DuplicatesRemoved: 105,
		SourcesTotal:      4,
		SourcesComplete:   4,
		ElapsedMs:         12500,
		SemanticTier:      types.TierComplete,
		Quality:           88,
		Sources: []types.SourceNode{
			{ID: "arxiv", Status: types.SourceComplete, PaperCount: 80, TimeMs: 2100},
			{ID: "openalex", Status: types.SourceComplete, PaperCount: 40, TimeMs: 3300},
		},
	}
	if err := Render(&buf, m); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"graph neural networks",
		"abc-123",
		"Complete (full depth)",
		"12.5s",
		"88/100",
		"arxiv",
		"openalex",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
