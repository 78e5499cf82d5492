// Package viewer exposes the editor state over HTTP and websockets so a
// browser canvas can render the network and drive the train.
package viewer

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/trackforge/engine/internal/core/event"
	"github.com/trackforge/engine/internal/track"
	"github.com/trackforge/engine/internal/train"
)

// Server serves the read API and train controls for one editor session.
// Graph and train are single-owner state; the server serializes access to
// them through mu, since handlers run on arbitrary goroutines.
type Server struct {
	log    *zap.Logger
	hub    *Hub
	router *chi.Mux

	mu    sync.Mutex
	graph *track.Graph
	train *train.Train
}

func NewServer(g *track.Graph, tr *train.Train, allowOrigins []string, log *zap.Logger) *Server {
	s := &Server{
		log:   log,
		hub:   NewHub(log),
		graph: g,
		train: tr,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/topology", s.handleTopology)
		r.Get("/drawdata", s.handleDrawData)
		r.Get("/project", s.handleProject)
		r.Get("/preview", s.handlePreview)
		r.Get("/train", s.handleTrainState)
		r.Post("/train/throttle", s.handleThrottle)
		r.Post("/train/reverse", s.handleReverse)
	})
	r.Get("/ws", s.hub.HandleWebSocket)

	s.router = r
	s.subscribeGraphEvents()
	return s
}

// subscribeGraphEvents relays graph mutation notifications to viewers so
// the canvas can patch its draw list instead of refetching everything.
func (s *Server) subscribeGraphEvents() {
	bus := s.graph.Bus()
	event.Subscribe(bus, func(e track.SliceAdded) {
		s.hub.Broadcast("graph:sliceAdded", map[string]any{
			"segment": uint32(e.Segment),
			"index":   e.Index,
			"t0":      e.Entry.T0,
			"t1":      e.Entry.T1,
		})
	})
	event.Subscribe(bus, func(e track.SliceRemoved) {
		s.hub.Broadcast("graph:sliceRemoved", map[string]any{
			"segment": uint32(e.Segment),
			"index":   e.Index,
		})
	})
	event.Subscribe(bus, func(e track.ElevationChanged) {
		s.hub.Broadcast("graph:elevationChanged", map[string]any{
			"joint":     uint32(e.Joint),
			"elevation": e.Elevation,
		})
	})
}

// Router returns the HTTP handler, for http.Server and for httptest.
func (s *Server) Router() http.Handler { return s.router }

// Hub returns the websocket hub; the caller runs it alongside the HTTP
// listener.
func (s *Server) Hub() *Hub { return s.hub }

// Tick advances the train by deltaMs under the state lock. The frame loop
// calls this once per tick.
func (s *Server) Tick(deltaMs float64) {
	if s.train == nil {
		return
	}
	s.mu.Lock()
	s.train.Update(deltaMs)
	s.mu.Unlock()
}

// BroadcastTrainState pushes the current train state to every viewer.
func (s *Server) BroadcastTrainState() {
	if s.train == nil || s.hub.ClientCount() == 0 {
		return
	}
	s.mu.Lock()
	state := s.trainStateLocked()
	s.mu.Unlock()
	s.hub.Broadcast("train:state", state)
}
