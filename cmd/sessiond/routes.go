package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

const maxValueSize = 64 << 10

// newRouter exposes health probes and a small API over the caller's session.
func newRouter(mgr *session.Manager, ready func(context.Context) error, log *slog.Logger) http.Handler {
	h := &handlers{log: log}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := ready(r.Context()); err != nil {
			log.WarnContext(r.Context(), "readiness check failed", logger.Error(err))
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Group(func(r chi.Router) {
		r.Use(mgr.Middleware)
		r.Get("/session", h.show)
		r.Post("/session/visits", h.visit)
		r.Post("/session/cycle", h.cycle)
		r.Delete("/session", h.clear)
		r.Route("/session/values/{key}", func(r chi.Router) {
			r.Get("/", h.getValue)
			r.Put("/", h.putValue)
			r.Delete("/", h.removeValue)
		})
	})

	return r
}

type handlers struct {
	log *slog.Logger
}

type sessionView struct {
	ID      string `json:"id,omitempty"`
	Visits  int    `json:"visits"`
	Expires string `json:"expires,omitempty"`
}

func (h *handlers) view(r *http.Request, s *session.Session) sessionView {
	var v sessionView
	v.Visits, _ = s.GetInt(r.Context(), "visits")
	// An empty session is never persisted, so its identifier is meaningless.
	if id, ok := s.ID(); ok && !s.IsEmpty() {
		v.ID = id.String()
	}
	if e := s.Expiry(); e.Persistent {
		v.Expires = e.ExpiresAt.UTC().Format(http.TimeFormat)
	}
	return v
}

func (h *handlers) show(w http.ResponseWriter, r *http.Request) {
	s := session.MustFromContext(r.Context())
	h.json(w, r, http.StatusOK, h.view(r, s))
}

func (h *handlers) visit(w http.ResponseWriter, r *http.Request) {
	s := session.MustFromContext(r.Context())
	n, _ := s.GetInt(r.Context(), "visits")
	if err := s.Insert(r.Context(), "visits", n+1); err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, r, http.StatusOK, h.view(r, s))
}

func (h *handlers) cycle(w http.ResponseWriter, r *http.Request) {
	s := session.MustFromContext(r.Context())
	if err := s.CycleID(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.json(w, r, http.StatusOK, h.view(r, s))
}

func (h *handlers) clear(w http.ResponseWriter, r *http.Request) {
	if err := session.MustFromContext(r.Context()).Clear(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getValue(w http.ResponseWriter, r *http.Request) {
	s := session.MustFromContext(r.Context())
	raw, ok, err := s.GetValue(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func (h *handlers) putValue(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValueSize))
	if err != nil {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}
	if !json.Valid(body) {
		http.Error(w, "body must be a JSON value", http.StatusBadRequest)
		return
	}

	s := session.MustFromContext(r.Context())
	if err := s.Insert(r.Context(), chi.URLParam(r, "key"), json.RawMessage(body)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) removeValue(w http.ResponseWriter, r *http.Request) {
	s := session.MustFromContext(r.Context())
	if err := s.Remove(r.Context(), chi.URLParam(r, "key")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) json(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.DebugContext(r.Context(), "failed to write response", logger.Error(err))
	}
}

// fail maps session errors to statuses. Backend failures are 503 so the
// middleware leaves the session untouched.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, session.ErrUnavailable) {
		status = http.StatusServiceUnavailable
	}
	h.log.ErrorContext(r.Context(), "session operation failed", logger.Error(err), logger.Status(status))
	http.Error(w, http.StatusText(status), status)
}
