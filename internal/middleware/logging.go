package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mmynk/foodgram/internal/metrics"
)

// RequestID stores chi's request ID, generating a UUID when the client did
// not send X-Request-Id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(chimw.RequestIDHeader) == "" {
			r.Header.Set(chimw.RequestIDHeader, uuid.NewString())
		}
		chimw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(chimw.RequestIDHeader, chimw.GetReqID(r.Context()))
			next.ServeHTTP(w, r)
		})).ServeHTTP(w, r)
	})
}

// Logging logs every request and records it in the HTTP metrics.
// Routes are labelled with their chi pattern so IDs do not explode cardinality.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		info := &requestInfo{}
		r = r.WithContext(context.WithValue(r.Context(), requestInfoKey, info))

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		duration := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, route, status, duration)

		attrs := []any{
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", duration.Milliseconds(),
			"request_id", chimw.GetReqID(r.Context()),
		}
		if info.userID != 0 {
			attrs = append(attrs, "user_id", info.userID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			slog.Error("HTTP request failed", attrs...)
		case status >= http.StatusBadRequest:
			slog.Warn("HTTP request rejected", attrs...)
		default:
			slog.Info("HTTP request", attrs...)
		}
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
