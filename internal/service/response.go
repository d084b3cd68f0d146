package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/shortcode"
	"github.com/mmynk/foodgram/internal/storage"
	"github.com/mmynk/foodgram/internal/validation"
)

const (
	// DefaultPageLimit is the page size when the client sends no limit.
	DefaultPageLimit = 6
	// MaxPageLimit caps the limit query parameter.
	MaxPageLimit = 100

	// maxBodyBytes bounds request bodies; images arrive inline as data URLs.
	maxBodyBytes = 10 << 20
)

// apiError is an error with a fixed HTTP status and client-facing message.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return e.message
}

func badRequest(format string, args ...any) error {
	return &apiError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func forbidden(message string) error {
	return &apiError{status: http.StatusForbidden, message: message}
}

func notFound(message string) error {
	return &apiError{status: http.StatusNotFound, message: message}
}

// writeJSON sends v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

type errorResponse struct {
	Errors string            `json:"errors"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeError maps err onto a status code and writes the error body.
// Unexpected errors are logged and reported without detail.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		apiErr *apiError
		valErr *validation.RequestValidationError
	)
	switch {
	case errors.As(err, &valErr):
		fields := make(map[string]string, len(valErr.Errors()))
		for _, fe := range valErr.Errors() {
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = fe.Error()
			}
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Errors: valErr.Error(), Fields: fields})
		return
	case errors.As(err, &apiErr):
		writeJSON(w, apiErr.status, errorResponse{Errors: apiErr.message})
		return
	}

	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Errors: message})
}

// errorStatus maps domain and storage sentinels to HTTP statuses.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusBadRequest, "already exists"
	case errors.Is(err, storage.ErrInvalidReference):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrEmailExists),
		errors.Is(err, auth.ErrUsernameExists):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, storage.ErrShortCodeTaken):
		return http.StatusConflict, "could not assign a unique short code, try again"
	case errors.Is(err, shortcode.ErrCodeSpaceExhausted):
		return http.StatusServiceUnavailable, "short code space exhausted"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// decodeJSON reads the request body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("invalid JSON: %v", err)
	}
	if err := validation.ValidateStruct(v); err != nil {
		return err
	}
	return nil
}

// pathID parses a numeric URL parameter. Malformed IDs are reported as 404.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound("not found")
	}
	return id, nil
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("%s must be a non-negative integer", name)
	}
	return n, nil
}

// queryFlag reports whether a boolean filter such as is_favorited=1 is set.
func queryFlag(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true":
		return true
	default:
		return false
	}
}

// pageParams is the parsed page/limit pair.
type pageParams struct {
	Page  int
	Limit int
}

func (p pageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

func parsePage(r *http.Request) (pageParams, error) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return pageParams{}, err
	}
	if page < 1 {
		return pageParams{}, badRequest("page must be at least 1")
	}
	limit, err := queryInt(r, "limit", DefaultPageLimit)
	if err != nil {
		return pageParams{}, err
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return pageParams{Page: page, Limit: limit}, nil
}

// pageResponse is the envelope for paginated lists.
type pageResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func newPage[T any](r *http.Request, base string, p pageParams, count int, results []T) pageResponse[T] {
	if results == nil {
		results = []T{}
	}
	resp := pageResponse[T]{Count: count, Results: results}
	if p.Offset()+len(results) < count {
		next := pageURL(r, base, p.Page+1)
		resp.Next = &next
	}
	if p.Page > 1 {
		prev := pageURL(r, base, p.Page-1)
		resp.Previous = &prev
	}
	return resp
}

func pageURL(r *http.Request, base string, page int) string {
	q := url.Values{}
	for k, v := range r.URL.Query() {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return base + r.URL.Path + "?" + q.Encode()
}

// baseURL returns the configured public URL, or one derived from the request.
func baseURL(r *http.Request, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
