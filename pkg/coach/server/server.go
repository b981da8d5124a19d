// Package server wires the coach HTTP surface: routes, middleware chain
// and the static upload mount.
package server

import (
	"log/slog"
	"net/http"

	"github.com/sketch2solve/coach/pkg/coach/blob"
	"github.com/sketch2solve/coach/pkg/coach/config"
	"github.com/sketch2solve/coach/pkg/coach/engine"
	"github.com/sketch2solve/coach/pkg/coach/events"
	"github.com/sketch2solve/coach/pkg/coach/handlers"
	"github.com/sketch2solve/coach/pkg/coach/mw"
)

// Deps are the constructed components the server routes requests to.
type Deps struct {
	Store    handlers.SessionStore
	Resolver handlers.ProblemResolver
	Engine   *engine.Engine
	Hub      *events.Hub
	Blobs    blob.Store

	// CheckpointStore is usually the same value as Store; split so tests
	// can fake the checkpoint path alone.
	CheckpointStore handlers.CheckpointStore
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux
}

func New(cfg config.Config, logger *slog.Logger, deps Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.routes(deps)
	return s
}

func (s *Server) routes(deps Deps) {
	sessions := handlers.SessionsHandler{
		Store:    deps.Store,
		Resolver: deps.Resolver,
		Logger:   s.logger,
	}

	s.mux.Handle("/", handlers.NotFoundHandler{})
	s.mux.Handle("GET /health", handlers.HealthHandler{})

	s.mux.HandleFunc("POST /sessions", sessions.Create)
	s.mux.HandleFunc("GET /sessions/{id}", sessions.Get)
	s.mux.HandleFunc("PATCH /sessions/{id}/problem", sessions.SetProblem)
	s.mux.HandleFunc("POST /sessions/{id}/complete", sessions.Complete)
	s.mux.HandleFunc("GET /sessions/{id}/card", sessions.Card)

	s.mux.Handle("POST /checkpoints", handlers.CheckpointsHandler{
		Store:        deps.CheckpointStore,
		Blobs:        deps.Blobs,
		Hub:          deps.Hub,
		Transcriber:  deps.Engine,
		Logger:       s.logger,
		MaxBodyBytes: s.cfg.MaxBodyBytes,
	})

	s.mux.Handle("POST /sessions/{id}/coach", handlers.CoachHandler{
		Engine:       deps.Engine,
		Logger:       s.logger,
		MaxBodyBytes: s.cfg.MaxBodyBytes,
	})

	s.mux.Handle("POST /verify", handlers.VerifyHandler{
		Store:  deps.Store,
		Engine: deps.Engine,
		Logger: s.logger,
	})

	s.mux.Handle("POST /visualize", handlers.VisualizeHandler{
		Engine: deps.Engine,
	})

	s.mux.Handle("GET /ws/{session_id}", handlers.WSHandler{
		Hub:          deps.Hub,
		Logger:       s.logger,
		WriteTimeout: s.cfg.WSWriteTimeout,
	})

	s.mux.Handle("GET /uploads/",
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.cfg.UploadDir))))
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg.CORSAllowedOrigins, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
