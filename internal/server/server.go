package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/signon-id/apiserver/config"
	"github.com/signon-id/apiserver/internal/db"
	"github.com/signon-id/apiserver/internal/events"
	"github.com/signon-id/apiserver/internal/handlers"
	"github.com/signon-id/apiserver/internal/password"
	"github.com/signon-id/apiserver/internal/services"
	"github.com/signon-id/apiserver/internal/store"
	"github.com/signon-id/apiserver/internal/token"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *events.Publisher
	logger     *slog.Logger
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	hasher := password.NewHasher(cfg.Auth.BcryptCost)
	rules := services.CredentialRules{
		MinUsername: cfg.Auth.MinUsername,
		MaxUsername: cfg.Auth.MaxUsername,
		MinPassword: cfg.Auth.MinPassword,
		MaxPassword: cfg.Auth.MaxPassword,
	}
	identityService := services.NewIdentityService(userRepo, hasher, rules)
	tokenService := token.NewService(
		[]byte(cfg.Auth.JWTSecret),
		cfg.Auth.Issuer,
		cfg.Auth.Audience,
		cfg.Auth.TokenTTL,
	)

	publisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	authHandler := handlers.NewAuthHandler(identityService, tokenService, publisher, logger)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	if cfg.AdminEnabled {
		logger.Warn("admin routes enabled; do not expose in production")
		adminHandler := handlers.NewAdminHandler(identityService, logger)
		router.Route("/admin", func(r chi.Router) {
			handlers.AdminRouter(r, adminHandler)
		})
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
		logger:     logger,
	}, nil
}

func newPublisher(ctx context.Context, cfg config.Config, logger *slog.Logger) (*events.Publisher, error) {
	switch cfg.Events.Backend {
	case "rabbitmq":
		backend, err := events.NewRabbitMQBackend(cfg.Events.RabbitMQ)
		if err != nil {
			return nil, err
		}
		logger.Info("account events enabled", "backend", "rabbitmq")
		return events.NewPublisher(backend), nil
	case "pubsub":
		backend, err := events.NewPubSubBackend(ctx, cfg.Events.PubSub)
		if err != nil {
			return nil, err
		}
		logger.Info("account events enabled", "backend", "pubsub")
		return events.NewPublisher(backend), nil
	case "":
		return events.NewPublisher(events.NoopBackend{}), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
