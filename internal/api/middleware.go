package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/satishskid/gbseo/internal/auth"
)

// statusRecorder captures what a handler wrote so the request log can
// report it.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.written += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// RequestLogger logs one line per request. It runs inside the
// authenticator so the caller's email is on the context, and it reads the
// X-Request-ID a generation handler sets so the line joins up with that
// generation's own logs. Health checks log at debug and server errors at
// error.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.written,
			"duration", time.Since(start).String(),
		}
		if email := auth.EmailFromContext(r.Context()); email != "" {
			attrs = append(attrs, "user", email)
		}
		if id := rec.Header().Get("X-Request-ID"); id != "" {
			attrs = append(attrs, "request_id", id)
		}

		level := slog.LevelInfo
		switch {
		case rec.status >= http.StatusInternalServerError:
			level = slog.LevelError
		case r.URL.Path == "/api/health":
			level = slog.LevelDebug
		}
		slog.Log(r.Context(), level, "http request", attrs...)
	})
}

// Recovery turns a handler panic into a logged stack trace and a 500 with
// the API's JSON error body.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// CORS allows browser clients on any origin to call the API with either a
// session token or the development email header, and to read the request
// ID of a generation. Preflight requests are answered with 204.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+auth.EmailHeader)
		h.Set("Access-Control-Expose-Headers", "X-Request-ID")

		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
