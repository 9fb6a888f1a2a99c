// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the visualization session over the wire: the search
// backend pushes progress snapshots into an ingest websocket, and renderer
// clients receive derived-state frames on a viewer websocket. The server is
// the only component that touches the network; the derivation core stays
// pure.
package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/pdiddy/pipeline-orchestra/internal/history"
	"github.com/pdiddy/pipeline-orchestra/internal/report"
	"github.com/pdiddy/pipeline-orchestra/internal/secrets"
	"github.com/pdiddy/pipeline-orchestra/internal/session"
	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

// Server hosts one visualization session and its websocket surfaces.
type Server struct {
	app   *fiber.App
	hub   *Hub
	sess  *session.Session
	store *history.Store
	log   *zap.Logger
	token string

	mu       sync.Mutex
	query    string
	archived bool
}

// New builds the server. store may be nil to disable session archiving.
func New(cfg types.ServerConfig, stab types.StabilizerConfig, store *history.Store, log *zap.Logger) (*Server, error) {
	token, err := secrets.IngestToken(cfg.SecretsDir)
	if err != nil {
		return nil, fmt.Errorf("loading ingest token: %w", err)
	}

	s := &Server{
		app:   fiber.New(fiber.Config{DisableStartupMessage: true}),
		hub:   NewHub(log),
		sess:  session.New(stab),
		store: store,
		log:   log,
		token: token,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"session": s.sess.ID(),
			"viewers": s.hub.ViewerCount(),
		})
	})

	s.app.Get("/report", s.handleReport)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/ingest", s.requireToken, websocket.New(s.handleIngest))
	s.app.Get("/ws/view", websocket.New(s.handleView))
}

// requireToken gates the ingest endpoint when a token is configured.
// Viewers are read-only and stay open.
func (s *Server) requireToken(c *fiber.Ctx) error {
	if s.token == "" {
		return c.Next()
	}
	if c.Query("token") == s.token {
		return c.Next()
	}
	s.log.Warn("ingest rejected: bad token", zap.String("remote", c.IP()))
	return fiber.ErrUnauthorized
}

// handleIngest consumes snapshots from the search backend. Each message is a
// full PipelineSnapshot; malformed frames are logged and skipped so one bad
// event cannot kill the stream.
func (s *Server) handleIngest(conn *websocket.Conn) {
	defer conn.Close()

	if q := conn.Query("query"); q != "" {
		s.mu.Lock()
		s.query = q
		s.mu.Unlock()
	}
	s.log.Info("producer connected", zap.String("query", conn.Query("query")))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.log.Info("producer disconnected", zap.Error(err))
			return
		}

		var snap types.PipelineSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			s.log.Warn("dropping malformed snapshot", zap.Error(err))
			continue
		}
		snap.Stage = types.ParseSearchStage(string(snap.Stage))
		snap.SemanticTier = types.ParseSemanticTier(string(snap.SemanticTier))

		s.apply(snap)
	}
}

// apply runs one snapshot through the session, broadcasts the frame, and
// archives the run the first time it reaches the terminal stage.
func (s *Server) apply(snap types.PipelineSnapshot) {
	s.mu.Lock()
	if snap.IsSearching && !snap.IsComplete() {
		s.archived = false
	}
	query := s.query
	shouldArchive := snap.IsComplete() && !s.archived && s.store != nil
	if shouldArchive {
		s.archived = true
	}
	s.mu.Unlock()

	update := s.sess.Apply(snap)
	data, err := json.Marshal(update)
	if err != nil {
		s.log.Error("marshaling update", zap.Error(err))
		return
	}
	s.hub.Broadcast(data)

	if shouldArchive {
		m := s.sess.Metrics(query)
		if err := s.store.Save(m); err != nil {
			s.log.Error("archiving session", zap.Error(err))
		} else {
			s.log.Info("session archived",
				zap.String("session_id", m.SessionID),
				zap.Int("papers_found", m.PapersFound),
				zap.Int("quality", m.Quality))
		}
	}
}

// handleView streams derived frames to one renderer client. The latest frame
// is sent immediately so late joiners do not wait for the next backend event.
func (s *Server) handleView(conn *websocket.Conn) {
	defer conn.Close()

	client := newClient(conn)
	s.hub.add(client)

	if data, err := json.Marshal(s.sess.Latest()); err == nil {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.hub.drop(client)
			return
		}
	}

	// Drain inbound frames so closes are noticed; viewers send nothing.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.drop(client)
				return
			}
		}
	}()

	for data := range client.Send {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// handleReport renders the methodology report for the current session state.
func (s *Server) handleReport(c *fiber.Ctx) error {
	s.mu.Lock()
	query := s.query
	s.mu.Unlock()

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="methodology-report.html"`)
	return report.Render(c.Response().BodyWriter(), s.sess.Metrics(query))
}

// Listen starts the hub and serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	go s.hub.Run()
	s.log.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops the listener, the hub, and the session's timers.
func (s *Server) Shutdown() error {
	err := s.app.Shutdown()
	s.hub.Stop()
	s.sess.Close()
	return err
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
