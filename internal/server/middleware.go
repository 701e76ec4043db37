package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ternarybob/emsuite/internal/common"
)

// requestLogger logs one line per request once routing has resolved, so the
// route pattern and employee id are known. Server errors log at warn.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		logEvent := s.logger.Debug()
		if status >= http.StatusInternalServerError {
			logEvent = s.logger.Warn()
		}
		logEvent = logEvent.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", routePattern(r)).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start))
		if id := chi.URLParam(r, "id"); id != "" {
			logEvent = logEvent.Str("employee_id", id)
		}
		logEvent.Msg("Fixture request")
	})
}

// routePattern is the matched chi pattern, or the raw path for unrouted requests
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// corsMiddleware lets a separately served frontend call the API
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoverHandler turns a handler panic into a 500. API callers get the JSON
// error shape, pages get plain text.
func (s *Server) recoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			s.logger.Error().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("panic", fmt.Sprintf("%v", rec)).
				Str("path", r.URL.Path).
				Str("stack", common.GetStackTrace()).
				Msg("Fixture handler panicked")

			if strings.HasPrefix(r.URL.Path, "/api/") {
				WriteError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
