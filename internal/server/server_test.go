// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/pipeline-orchestra/internal/history"
	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

func newTestServer(t *testing.T, store *history.Store) *Server {
	t.Helper()
	cfg := types.ServerConfig{SecretsDir: t.TempDir()}
	stab := types.StabilizerConfig{QuietPeriod: 50 * time.Millisecond, GracePeriod: 150 * time.Millisecond}
	s, err := New(cfg, stab, store, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	go s.hub.Run()
	t.Cleanup(func() { s.hub.Stop(); s.sess.Close() })
	return s
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/healthz", nil))
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"status":"ok"`) {
		t.Errorf("body = %s, want status ok", body)
	}
}

func TestReportEndpointEscapesQuery(t *testing.T) {
	s := newTestServer(t, nil)
	s.mu.Lock()
	s.query = `<script>alert(1)</script>`
	s.mu.Unlock()

	resp, err := s.App().Test(httptest.NewRequest("GET", "/report", nil))
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), "<script>alert(1)</script>") {
		t.Error("query reached the report unescaped")
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q, want text/html", resp.Header.Get("Content-Type"))
	}
}

func TestWebsocketRoutesRequireUpgrade(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/ws/ingest", "/ws/view"} {
		resp, err := s.App().Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("Test(%s) error = %v", path, err)
		}
		if resp.StatusCode != 426 {
			t.Errorf("%s status = %d, want 426 Upgrade Required", path, resp.StatusCode)
		}
	}
}

func TestApplyBroadcastsAndArchives(t *testing.T) {
	store, err := history.NewStore(types.HistoryConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer store.Close()

	s := newTestServer(t, store)
	s.mu.Lock()
	s.query = "test query"
	s.mu.Unlock()

	viewer := &Client{ID: "v1", Send: make(chan []byte, sendBuffer)}
	s.hub.add(viewer)
	waitFor(t, func() bool { return s.hub.ViewerCount() == 1 })

	s.apply(types.PipelineSnapshot{IsSearching: true, Stage: types.StageAnalyzing})
	s.apply(types.PipelineSnapshot{Stage: types.StageComplete, PapersFound: 7})
	// A duplicate terminal snapshot must not archive twice.
	s.apply(types.PipelineSnapshot{Stage: types.StageComplete, PapersFound: 7})

	if got := drainFrames(t, viewer); got < 3 {
		t.Errorf("viewer received %d frames, want 3", got)
	}

	list, err := store.List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("archived sessions = %d, want exactly 1", len(list))
	}
	if list[0].Query != "test query" || list[0].PapersFound != 7 {
		t.Errorf("archived = %+v, want query and papers preserved", list[0])
	}
}

func TestSlowViewerIsDropped(t *testing.T) {
	s := newTestServer(t, nil)

	// Unbuffered viewer that never reads: the first broadcast overflows it.
	slow := &Client{ID: "slow", Send: make(chan []byte)}
	s.hub.add(slow)
	waitFor(t, func() bool { return s.hub.ViewerCount() == 1 })

	s.hub.Broadcast([]byte("frame"))
	waitFor(t, func() bool { return s.hub.ViewerCount() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func drainFrames(t *testing.T, c *Client) int {
	t.Helper()
	count := 0
	for {
		select {
		case <-c.Send:
			count++
		case <-time.After(100 * time.Millisecond):
			return count
		}
	}
}
