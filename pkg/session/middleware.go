package session

import (
	"net/http"
	"sync"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Middleware attaches a lazy session handle to every request and commits it
// right before the response headers go out. Responses with a 5xx status
// leave the session untouched.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Load(r)
		r = r.WithContext(WithSession(r.Context(), s))

		cw := &commitWriter{ResponseWriter: w}
		cw.commit = func(status int) {
			if status >= http.StatusInternalServerError {
				m.logger.DebugContext(r.Context(), "skipping session commit on server error",
					logger.Component("session_manager"),
					logger.Status(status),
				)
				return
			}

			out, err := m.Commit(r.Context(), w, s)
			if err != nil {
				m.logger.ErrorContext(r.Context(), "failed to commit session",
					logger.Component("session_manager"),
					logger.Error(err),
				)
				return
			}
			m.logger.DebugContext(r.Context(), "session committed",
				logger.Component("session_manager"),
				logger.Outcome(out.Kind.String()),
			)
		}

		next.ServeHTTP(cw, r)
		cw.finish()
	})
}

// commitWriter runs commit once, before the first status line is written.
type commitWriter struct {
	http.ResponseWriter
	once   sync.Once
	commit func(status int)
}

func (w *commitWriter) WriteHeader(code int) {
	// Informational responses do not fix the final status.
	if code >= http.StatusOK {
		w.once.Do(func() { w.commit(code) })
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.once.Do(func() { w.commit(http.StatusOK) })
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Flush() {
	w.once.Do(func() { w.commit(http.StatusOK) })
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// finish commits for handlers that never wrote a response.
func (w *commitWriter) finish() {
	w.once.Do(func() { w.commit(http.StatusOK) })
}
