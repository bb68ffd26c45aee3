// Package httpapi exposes the workflow over HTTP. One POST endpoint drives
// turns; reads are plain GETs. Responses reuse the wire envelope, so an HTTP
// client sees the same frames a streaming frontend would.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/deckwright/deckwright/internal/logging"
	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/protocol"
	"github.com/deckwright/deckwright/pkg/session"
	"github.com/deckwright/deckwright/pkg/workflow"
)

// Server handles the HTTP surface.
type Server struct {
	machine  *workflow.Machine
	sessions *session.Manager
	metrics  http.Handler
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts a handler at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates the HTTP adapter over the state machine.
func NewServer(machine *workflow.Machine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		machine:  machine,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the routed http.Handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Post("/messages", s.handleMessage)
			r.Get("/outline", s.handleGetOutline)
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMessage runs one turn. The body is a chat_message envelope; the
// session_id may be omitted and is taken from the path.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "body is not valid JSON")
		return
	}
	if _, ok := raw["session_id"]; !ok {
		raw["session_id"] = sessionID
	}
	data, err := json.Marshal(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "body is not valid JSON")
		return
	}

	in, err := protocol.Decode(data)
	if err != nil {
		// Rejected envelopes get a wire-shaped error so clients handle one
		// frame format everywhere.
		writeJSON(w, http.StatusBadRequest, protocol.ErrorResponse(sessionID, "invalid_envelope", err.Error(), nil))
		return
	}
	if in.SessionID != sessionID {
		writeJSON(w, http.StatusBadRequest, protocol.ErrorResponse(sessionID, "invalid_envelope", "session_id in body does not match path", nil))
		return
	}

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		userID = "anonymous"
	}

	res, err := s.machine.AdvanceWithRetry(r.Context(), sessionID, userID, in.Text)
	if err != nil {
		s.logger.Error("turn failed", "session_id", sessionID, "err", err)
		if errors.Is(err, domain.ErrVersionConflict) {
			writeError(w, http.StatusConflict, "session is busy, retry the message")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, protocol.EncodeTurn(res))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	vs, err := s.sessions.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("session load failed", "session_id", sessionID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": vs.Session,
		"version": vs.Version,
	})
}

func (s *Server) handleGetOutline(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	vs, err := s.sessions.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("session load failed", "session_id", sessionID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if vs.Session.Strawman == nil {
		writeError(w, http.StatusNotFound, "no outline yet")
		return
	}
	writeJSON(w, http.StatusOK, vs.Session.Strawman)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.logger.Error("session list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.sessions.Delete(r.Context(), sessionID); err != nil {
		s.logger.Error("session delete failed", "session_id", sessionID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
