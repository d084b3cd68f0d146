package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/metrics"
	"github.com/mmynk/foodgram/internal/models"
)

func echoUser(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(strconv.FormatInt(GetUserID(r.Context()), 10)))
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("middleware-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: 7, Email: "cook@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	handler := RequireAuth(jwtManager)(http.HandlerFunc(echoUser))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"bearer token", "Bearer " + token, http.StatusOK, "7"},
		{"token scheme", "Token " + token, http.StatusOK, "7"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/me/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("middleware-secret", time.Hour)
	handler := OptionalAuth(jwtManager)(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "0" {
		t.Errorf("invalid token should be anonymous, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestLogging_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(RequestID, Logging)
	r.Get("/api/recipes/{id}/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/recipes/{id}/", "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recipes/42/", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("counter delta = %v, want 1", got)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id response header")
	}
}
