package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/config"
	"github.com/mmynk/foodgram/internal/metrics"
	"github.com/mmynk/foodgram/internal/service"
	"github.com/mmynk/foodgram/internal/shopping"
	"github.com/mmynk/foodgram/internal/shortcode"
	"github.com/mmynk/foodgram/internal/storage/sqlite"
	"github.com/mmynk/foodgram/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.Database.Path)

	codes, err := shortcode.New(
		shortcode.WithLength(cfg.ShortCode.Length),
		shortcode.WithAlphabet(cfg.ShortCode.Alphabet),
		shortcode.WithMaxAttempts(cfg.ShortCode.MaxAttempts),
		shortcode.WithObserver(metrics.RecordShortCode),
	)
	if err != nil {
		return err
	}
	logger.Info("Short code generator ready", "length", codes.Length(), "max_attempts", cfg.ShortCode.MaxAttempts)

	handler := service.NewRouter(service.Deps{
		Store:         store,
		Authenticator: auth.NewPasswordAuthenticator(store),
		JWT:           auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		ShortCodes:    codes,
		Shopping: shopping.NewAggregator(store,
			shopping.WithHeader(cfg.Shopping.Header),
			shopping.WithObserver(metrics.RecordShoppingList),
		),
		Logger: logger,
	}, service.RouterOptions{
		PublicURL:         cfg.PublicURL(),
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitDisabled: cfg.RateLimit.Disabled,
		AuthRequests:      cfg.RateLimit.AuthRequests,
		AuthWindow:        cfg.RateLimit.AuthWindow,
	})

	// h2c serves HTTP/2 clients without TLS next to plain HTTP/1.1.
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", server.Addr, "public_url", publicURLLabel(cfg))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func publicURLLabel(cfg *config.Config) string {
	if base := cfg.PublicURL(); base != "" {
		return base
	}
	return "(from request host)"
}
