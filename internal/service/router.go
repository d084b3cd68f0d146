package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/shopping"
	"github.com/mmynk/foodgram/internal/shortcode"
	"github.com/mmynk/foodgram/internal/storage"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Store         storage.Store
	Authenticator auth.Authenticator
	JWT           *auth.JWTManager
	ShortCodes    *shortcode.Generator
	Shopping      *shopping.Aggregator
	Logger        *slog.Logger
}

// RouterOptions tune the HTTP surface.
type RouterOptions struct {
	// PublicURL prefixes short links, redirects and pagination links.
	// Derived from each request when empty.
	PublicURL   string
	CORSOrigins []string

	RateLimitDisabled bool
	AuthRequests      int
	AuthWindow        time.Duration
}

// NewRouter builds the chi router serving the API, short links, health and metrics.
func NewRouter(deps Deps, opts RouterOptions) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authSvc := NewAuthService(deps.Authenticator, deps.JWT, logger)
	userSvc := NewUserService(deps.Store, deps.Authenticator, opts.PublicURL, logger)
	catalogSvc := NewCatalogService(deps.Store, logger)
	recipeSvc := NewRecipeService(deps.Store, deps.ShortCodes, deps.Shopping, opts.PublicURL, logger)

	requireAuth := middleware.RequireAuth(deps.JWT)
	optionalAuth := middleware.OptionalAuth(deps.JWT)
	limitAuth := authRateLimit(opts)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", healthHandler(deps.Store, logger))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/s/{code}/", recipeSvc.ResolveShortLink)

	r.Route("/api", func(r chi.Router) {
		r.With(limitAuth).Post("/auth/token/login/", authSvc.Login)
		r.With(requireAuth).Post("/auth/token/logout/", authSvc.Logout)

		r.Route("/users", func(r chi.Router) {
			r.With(limitAuth).Post("/", authSvc.Register)
			r.With(optionalAuth).Get("/", userSvc.List)
			r.With(optionalAuth).Get("/{id}/", userSvc.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me/", userSvc.Me)
				r.Put("/me/avatar/", userSvc.SetAvatar)
				r.Delete("/me/avatar/", userSvc.DeleteAvatar)
				r.Post("/set_password/", userSvc.SetPassword)
				r.Get("/subscriptions/", userSvc.Subscriptions)
				r.Post("/{id}/subscribe/", userSvc.Subscribe)
				r.Delete("/{id}/subscribe/", userSvc.Unsubscribe)
			})
		})

		r.Get("/tags/", catalogSvc.ListTags)
		r.Get("/tags/{id}/", catalogSvc.GetTag)
		r.Get("/ingredients/", catalogSvc.ListIngredients)
		r.Get("/ingredients/{id}/", catalogSvc.GetIngredient)

		r.Route("/recipes", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Get("/", recipeSvc.List)
				r.Get("/{id}/", recipeSvc.Get)
				r.Get("/{id}/get-link/", recipeSvc.GetLink)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", recipeSvc.Create)
				r.Get("/download_shopping_cart/", recipeSvc.DownloadShoppingCart)
				r.Patch("/{id}/", recipeSvc.Update)
				r.Delete("/{id}/", recipeSvc.Delete)
				r.Post("/{id}/favorite/", recipeSvc.AddFavorite)
				r.Delete("/{id}/favorite/", recipeSvc.RemoveFavorite)
				r.Post("/{id}/shopping_cart/", recipeSvc.AddToCart)
				r.Delete("/{id}/shopping_cart/", recipeSvc.RemoveFromCart)
			})
		})
	})

	return r
}

// authRateLimit throttles credential endpoints per client IP.
func authRateLimit(opts RouterOptions) func(http.Handler) http.Handler {
	if opts.RateLimitDisabled || opts.AuthRequests <= 0 || opts.AuthWindow <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		opts.AuthRequests,
		opts.AuthWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Errors: "too many requests"})
		}),
	)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthHandler(db pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			logger.Error("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
