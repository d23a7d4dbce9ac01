package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/quicktech-sms/portal/config"
	"github.com/quicktech-sms/portal/internal/handlers"
	"github.com/quicktech-sms/portal/internal/services"
	"github.com/quicktech-sms/portal/internal/storage"
	"github.com/quicktech-sms/portal/internal/store"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server is the local authority: an in-memory implementation of the
// portal API.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	handler    http.Handler
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	seed    []services.SeedAccount
	backend storage.ObjectStorage
	svcOpts []services.Option
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSeed replaces the accounts created at startup.
func WithSeed(seed []services.SeedAccount) Option {
	return func(o *options) { o.seed = seed }
}

// WithAvatarBackend overrides the backend chosen by config.
func WithAvatarBackend(b storage.ObjectStorage) Option {
	return func(o *options) { o.backend = b }
}

// WithServiceOptions passes options through to the services.
func WithServiceOptions(opts ...services.Option) Option {
	return func(o *options) { o.svcOpts = append(o.svcOpts, opts...) }
}

// New constructs a Server with basic middleware and seeded accounts.
func New(ctx context.Context, cfg config.AuthorityConfig, opts ...Option) (*Server, error) {
	o := options{logger: slog.New(slog.DiscardHandler), seed: services.DefaultSeed}
	for _, opt := range opts {
		opt(&o)
	}

	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	backend := o.backend
	if backend == nil {
		var err error
		backend, err = storage.NewBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("prepare avatar bucket %s: %w", backend.Bucket(), err)
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}
	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("http://localhost:%d", port)
	}
	avatars := storage.NewAvatars(backend, publicURL)

	svcOpts := append([]services.Option{services.WithLogger(o.logger)}, o.svcOpts...)
	userRepo := store.NewUserRepository()
	userService := services.NewUserService(userRepo, avatars, svcOpts...)
	studentService := services.NewStudentService(userRepo, avatars, svcOpts...)

	if err := userService.Seed(ctx, o.seed); err != nil {
		return nil, err
	}

	tokens := handlers.NewTokenIssuer(jwtSecret, cfg.TokenTTL)
	authMiddleware := handlers.RequireAuth(tokens, userService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Get(storage.AvatarRoute+"{key}", handlers.AvatarHandler(avatars))
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, tokens)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, authMiddleware)
	})
	router.Route("/students", func(r chi.Router) {
		handlers.StudentRouter(r, studentService, authMiddleware)
	})

	handler := otelhttp.NewHandler(router, "portal-authority")

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	o.logger.Info("authority ready", "addr", httpServer.Addr, "avatars", backend.Bucket(), "seeded", len(o.seed))

	return &Server{
		httpServer: httpServer,
		router:     router,
		handler:    handler,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the instrumented root handler, for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
