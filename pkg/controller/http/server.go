package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// config holds internal HTTP server configuration
type config struct {
	addr          string
	webhookSecret string
	maxBodyBytes  int64
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithWebhookSecret sets the webhook secret
func WithWebhookSecret(secret string) Option {
	return func(c *config) {
		c.webhookSecret = secret
	}
}

// WithMaxBodyBytes limits the size of accepted webhook payloads
func WithMaxBodyBytes(n int64) Option {
	return func(c *config) {
		c.maxBodyBytes = n
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server receiving GitHub webhooks. A webhook
// secret is required because a verified push starts a release.
func NewServer(
	ctx context.Context,
	webhookUC interfaces.WebhookUseCase,
	opts ...Option,
) (*Server, error) {
	cfg := &config{
		addr:         "localhost:8080",
		maxBodyBytes: 5 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.webhookSecret == "" {
		return nil, goerr.New("webhook secret is required", goerr.T(model.ErrTagInvalidConfiguration))
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/health", healthHandler(webhookUC))

	webhookHandler := NewWebhookHandler(cfg.webhookSecret, webhookUC)
	router.With(middleware.RequestSize(cfg.maxBodyBytes)).Post("/hooks/github", webhookHandler.Handle)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
