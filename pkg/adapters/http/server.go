// Package http exposes the onboarding engine over a JSON API. Each session
// gets one engine, created when the session is opened and kept for its
// lifetime; the session manager serializes concurrent requests per session.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rampkit/ramp"
	"github.com/rampkit/ramp/internal/logging"
	"github.com/rampkit/ramp/pkg/domain"
	"github.com/rampkit/ramp/pkg/ports"
	"github.com/rampkit/ramp/pkg/session"
)

// Server hosts one engine per open onboarding session.
type Server struct {
	gateway  ramp.Gateway
	sessions *session.Manager

	fragments ports.FragmentStore
	hooks     domain.LifecycleHooks
	registry  *prometheus.Registry
	logger    *slog.Logger

	mu      sync.Mutex
	engines map[string]*ramp.Engine
}

// Option configures the Server.
type Option func(*Server)

// WithFragmentStore enables the durable business-domain fragment.
func WithFragmentStore(store ports.FragmentStore) Option {
	return func(s *Server) { s.fragments = store }
}

// WithHooks registers lifecycle hooks on every engine the server creates.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Server) { s.hooks = hooks }
}

// WithMetricsRegistry mounts /metrics for the given registry.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a server over the given gateway and session manager.
func NewServer(gateway ramp.Gateway, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		gateway:  gateway,
		sessions: sessions,
		logger:   logging.NewNop(),
		engines:  make(map[string]*ramp.Engine),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleOpen)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Post("/next", s.handleNext)
			r.Post("/prev", s.handlePrev)
			r.Post("/regenerate", s.handleRegenerate)
			r.Post("/complete", s.handleComplete)

			r.Put("/business", s.handleBusiness)
			r.Post("/business/audiences", s.handleAddAudience)
			r.Delete("/business/audiences/{index}", s.handleRemoveAudience)

			r.Post("/competitors", s.handleAddCompetitor)
			r.Delete("/competitors/{index}", s.handleRemoveCompetitor)

			r.Post("/categories", s.handleAddCategory)
			r.Delete("/categories/{index}", s.handleRemoveCategory)

			r.Put("/prompts/{index}", s.handleEditPrompt)
			r.Delete("/prompts/{index}", s.handleRemovePrompt)
		})
	})

	return r
}

// Wait blocks until every engine's in-flight generation calls have settled.
func (s *Server) Wait() {
	s.mu.Lock()
	engines := make([]*ramp.Engine, 0, len(s.engines))
	for _, eng := range s.engines {
		engines = append(engines, eng)
	}
	s.mu.Unlock()

	for _, eng := range engines {
		eng.Wait()
	}
}

type openRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type sessionResponse struct {
	SessionID string                `json:"session_id"`
	Route     string                `json:"route,omitempty"`
	State     *domain.State         `json:"state,omitempty"`
	Progress  []domain.StepProgress `json:"progress,omitempty"`
	Draft     any                   `json:"draft,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// handleOpen starts a new session, or resumes one when session_id is given.
// The entry guard runs here; a login or dashboard route returns without an
// engine being retained.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var body openRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("open: invalid request body", "error", err)
			return
		}
	}

	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = session.NewSessionID()
	}

	s.mu.Lock()
	eng, exists := s.engines[sessionID]
	s.mu.Unlock()

	if !exists {
		opts := []ramp.Option{
			ramp.WithLogger(s.logger),
			ramp.WithHooks(s.hooks),
			ramp.WithStateStore(s.sessions.Store()),
		}
		if s.fragments != nil {
			opts = append(opts, ramp.WithFragmentStore(s.fragments))
		}
		if state, err := s.sessions.Load(r.Context(), sessionID); err == nil {
			opts = append(opts, ramp.WithState(state))
		} else if !errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, fmt.Sprintf("Session load error: %v", err), http.StatusInternalServerError)
			s.logger.Error("open: session load failed", "error", err, "session_id", sessionID)
			return
		}

		eng = ramp.New(sessionID, bearerToken(r), s.gateway, opts...)
	}

	var route ramp.Route
	err := s.sessions.WithLock(r.Context(), sessionID, func(context.Context) error {
		route = eng.Start(r.Context())
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Session lock error: %v", err), http.StatusInternalServerError)
		return
	}

	if route != ramp.RouteWorkflow {
		writeJSON(w, s.logger, http.StatusOK, sessionResponse{SessionID: sessionID, Route: string(route)})
		return
	}

	s.mu.Lock()
	s.engines[sessionID] = eng
	s.mu.Unlock()

	s.logger.Info("session opened", "session_id", sessionID, "resumed", exists)
	writeJSON(w, s.logger, http.StatusOK, s.envelope(sessionID, eng, string(route)))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.withEngine(w, r, func(sessionID string, eng *ramp.Engine) {
		writeJSON(w, s.logger, http.StatusOK, s.envelope(sessionID, eng, ""))
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.withEngine(w, r, func(sessionID string, eng *ramp.Engine) {
		if err := eng.Advance(r.Context()); err != nil {
			if errors.Is(err, ramp.ErrStepGate) {
				http.Error(w, "Step validation gate not satisfied", http.StatusConflict)
				return
			}
			http.Error(w, fmt.Sprintf("Advance error: %v", err), http.StatusInternalServerError)
			s.logger.Error("advance failed", "error", err, "session_id", sessionID)
			return
		}
		writeJSON(w, s.logger, http.StatusOK, s.envelope(sessionID, eng, ""))
	})
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.withEngine(w, r, func(sessionID string, eng *ramp.Engine) {
		eng.Retreat(r.Context())
		writeJSON(w, s.logger, http.StatusOK, s.envelope(sessionID, eng, ""))
	})
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	s.withEngine(w, r, func(sessionID string, eng *ramp.Engine) {
		eng.Regenerate(r.Context())
		writeJSON(w, s.logger, http.StatusAccepted, s.envelope(sessionID, eng, ""))
	})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.withEngine(w, r, func(sessionID string, eng *ramp.Engine) {
		route, err := eng.Complete(r.Context())
		if err != nil {
			switch {
			case errors.Is(err, ramp.ErrNotTerminalStep):
				http.Error(w, "Completion is only available on the final step", http.StatusConflict)
			case errors.Is(err, domain.ErrNotAuthenticated):
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
			default:
				// State is preserved for retry; report the fixed message
				// already recorded on it.
				writeJSON(w, s.logger, http.StatusBadGateway, s.envelope(sessionID, eng, string(route)))
			}
			return
		}

		s.mu.Lock()
		delete(s.engines, sessionID)
		s.mu.Unlock()

		writeJSON(w, s.logger, http.StatusOK, sessionResponse{SessionID: sessionID, Route: string(route)})
	})
}

type businessRequest struct {
	Domain       *string `json:"domain,omitempty"`
	BusinessName *string `json:"business_name,omitempty"`
	Description  *string `json:"description,omitempty"`
}

type valueRequest struct {
	Value string `json:"value"`
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleBusiness(w http.ResponseWriter, r *http.Request) {
	s.withEngine(w, r, func(sessionID string, eng *ramp.Engine) {
		var body businessRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("business: invalid request body", "error", err)
			return
		}

		ctrl := eng.Business()
		if body.Domain != nil {
			ctrl.SetDomain(r.Context(), *body.Domain)
		}
		if body.BusinessName != nil {
			ctrl.SetBusinessName(*body.BusinessName)
		}
		if body.Description != nil {
			ctrl.SetDescription(*body.Description)
		}
		writeJSON(w, s.logger, http.StatusOK, s.envelope(sessionID, eng, ""))
	})
}

func (s *Server) handleAddAudience(w http.ResponseWriter, r *http.Request) {
	s.addValue(w, r, func(eng *ramp.Engine, v string) bool { return eng.Business().AddAudience(v) })
}

func (s *Server) handleRemoveAudience(w http.ResponseWriter, r *http.Request) {
	s.removeAt(w, r, func(eng *ramp.Engine, i int) { eng.Business().RemoveAudience(i) })
}

func (s *Server) handleAddCompetitor(w http.ResponseWriter, r *http.Request) {
	s.addValue(w, r, func(eng *ramp.Engine, v string) bool { return eng.Competitors().Add(v) })
}

func (s *Server) handleRemoveCompetitor(w http.ResponseWriter, r *http.Request) {
	s.removeAt(w, r, func(eng *ramp.Engine, i int) { eng.Competitors().Remove(i) })
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	s.addValue(w, r, func(eng *ramp.Engine, v string) bool { return eng.Categories().Add(v) })
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	s.removeAt(w, r, func(eng *ramp.Engine, i int) { eng.Categories().Remove(i) })
}

func (s *Server) handleEditPrompt(w http.ResponseWriter, r *http.Request) {
	s.withEngine(w, r, func(sessionID string, eng *ramp.Engine) {
		index, ok := pathIndex(w, r)
		if !ok {
			return
		}
		var body textRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		eng.Prompts().SetText(index, body.Text)
		writeJSON(w, s.logger, http.StatusOK, s.envelope(sessionID, eng, ""))
	})
}

func (s *Server) handleRemovePrompt(w http.ResponseWriter, r *http.Request) {
	s.removeAt(w, r, func(eng *ramp.Engine, i int) { eng.Prompts().Remove(i) })
}

func (s *Server) addValue(w http.ResponseWriter, r *http.Request, add func(*ramp.Engine, string) bool) {
	s.withEngine(w, r, func(sessionID string, eng *ramp.Engine) {
		var body valueRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !add(eng, body.Value) {
			http.Error(w, "Value is empty or already present", http.StatusConflict)
			return
		}
		writeJSON(w, s.logger, http.StatusOK, s.envelope(sessionID, eng, ""))
	})
}

func (s *Server) removeAt(w http.ResponseWriter, r *http.Request, remove func(*ramp.Engine, int)) {
	s.withEngine(w, r, func(sessionID string, eng *ramp.Engine) {
		index, ok := pathIndex(w, r)
		if !ok {
			return
		}
		remove(eng, index)
		writeJSON(w, s.logger, http.StatusOK, s.envelope(sessionID, eng, ""))
	})
}

// withEngine resolves the session's engine and runs fn under the session lock.
func (s *Server) withEngine(w http.ResponseWriter, r *http.Request, fn func(string, *ramp.Engine)) {
	sessionID := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	eng, ok := s.engines[sessionID]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	err := s.sessions.WithLock(r.Context(), sessionID, func(context.Context) error {
		fn(sessionID, eng)
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Session lock error: %v", err), http.StatusInternalServerError)
		s.logger.Error("session lock failed", "error", err, "session_id", sessionID)
	}
}

// envelope snapshots state, progress, and the active step's draft.
func (s *Server) envelope(sessionID string, eng *ramp.Engine, route string) sessionResponse {
	resp := sessionResponse{
		SessionID: sessionID,
		Route:     route,
		State:     eng.State(),
		Progress:  eng.Progress(),
	}

	switch resp.State.CurrentStep {
	case domain.StepBusiness:
		resp.Draft = eng.Business().Draft()
	case domain.StepCompetitors:
		resp.Draft = eng.Competitors().Draft()
	case domain.StepCategories:
		resp.Draft = eng.Categories().Draft()
	case domain.StepPrompts:
		resp.Draft = eng.Prompts().Draft()
	}
	return resp
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Invalid index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}
