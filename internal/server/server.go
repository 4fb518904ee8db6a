// Package server is the composition root: it opens the database, builds the
// services and handlers, and mounts them on a chi router.
//
// ROUTES:
//
//	GET    /                           → liveness text
//	POST   /api/auth/login             → email+password sign-in      (auth on)
//	POST   /api/auth/logout            → clear token cookie          (auth on)
//	GET    /api/me                     → current user                (auth on)
//	GET    /auth/github/login|callback → GitHub sign-in              (GitHub configured)
//	GET    /api/users                  → search directory
//	POST   /api/users                  → create user                 (ADMIN)
//	GET    /api/users/{id}             → get user
//	PUT    /api/users/{id}             → update user                 (ADMIN)
//	DELETE /api/users/{id}             → delete user                 (ADMIN)
//	POST   /api/users/{id}/activity    → track activity              (owner or ADMIN)
//	GET    /api/users/{id}/activities  → activity history            (owner or ADMIN)
//	GET    /api/users/{id}/report      → generate PDF report         (owner or ADMIN)
//	GET    /api/users/{id}/reports     → report ledger               (owner or ADMIN)
//
// With no JWT secret configured the /api/users tree is open and the role
// checks are skipped. With one, roles are read from the database on every
// request rather than trusted from the token.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/user-reports/internal/auth"
	"github.com/sakif/user-reports/internal/config"
	"github.com/sakif/user-reports/internal/handler"
	"github.com/sakif/user-reports/internal/middleware"
	"github.com/sakif/user-reports/internal/model"
	sqliteRepo "github.com/sakif/user-reports/internal/repository/sqlite"
	"github.com/sakif/user-reports/internal/service"
)

// Server owns the router and the database connection, which is closed when
// Start returns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, runs migrations and wires every route.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

func (s *Server) setupRoutes() error {
	// Order matters: RequestID must run before Logger reads it.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	if origins := s.config.CORS.AllowedOrigins; len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	users := s.db.Users()
	activities := s.db.Activities()
	reports := s.db.Reports()
	passwords := auth.NewPasswordService()

	userHandler := handler.NewUserHandler(service.NewUserService(users, passwords, s.logger), s.logger)
	activityHandler := handler.NewActivityHandler(service.NewActivityService(users, activities, s.logger), s.logger)
	reportHandler := handler.NewReportHandler(service.NewReportService(users, activities, reports, s.logger), s.logger)

	s.router.Get("/", handler.HandleRoot)

	authCfg := s.config.Auth
	var tokens *auth.TokenService
	if authCfg.Enabled() {
		var err error
		tokens, err = auth.NewTokenService(authCfg.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}

		authService := service.NewAuthService(users, activities, tokens, passwords, s.logger)
		if authCfg.BootstrapAdminEmail != "" {
			if err := authService.EnsureAdmin(context.Background(), authCfg.BootstrapAdminEmail, authCfg.BootstrapAdminPassword); err != nil {
				return err
			}
		}

		var github *auth.GitHubProvider
		if authCfg.GitHubEnabled() {
			github = auth.NewGitHubProvider(authCfg.GitHubClientID, authCfg.GitHubClientSecret, authCfg.GitHubCallbackURL)
		}
		authHandler := handler.NewAuthHandler(authService, github, s.logger)

		if github != nil {
			s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
			s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		}
		s.router.Post("/api/auth/login", authHandler.HandleLogin)
		s.router.Post("/api/auth/logout", authHandler.HandleLogout)
		s.router.With(auth.RequireAuth(tokens)).Get("/api/me", authHandler.HandleMe)
	} else {
		s.logger.Warn("JWT_SECRET not set: authentication is disabled and /api/users is open")
	}

	// adminOnly and ownerOrAdmin are no-ops when authentication is disabled.
	adminOnly := func(next http.Handler) http.Handler { return next }
	ownerOrAdmin := adminOnly
	if tokens != nil {
		adminOnly = auth.RequireRole(model.RoleAdmin)
		ownerOrAdmin = auth.RequireOwnerOr(model.RoleAdmin, "id")
	}

	s.router.Route("/api/users", func(r chi.Router) {
		if tokens != nil {
			r.Use(auth.RequireAuth(tokens))
			r.Use(auth.CurrentRole(users))
		}

		r.Get("/", userHandler.HandleList)
		r.With(adminOnly).Post("/", userHandler.HandleCreate)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", userHandler.HandleGet)
			r.With(adminOnly).Put("/", userHandler.HandleUpdate)
			r.With(adminOnly).Delete("/", userHandler.HandleDelete)

			r.Group(func(r chi.Router) {
				r.Use(ownerOrAdmin)
				r.Post("/activity", activityHandler.HandleTrack)
				r.Get("/activities", activityHandler.HandleList)
				r.Get("/report", reportHandler.HandleGenerate)
				r.Get("/reports", reportHandler.HandleList)
			})
		})
	})

	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // long histories make large PDFs
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.DB.Path),
			slog.Bool("auth", s.config.Auth.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
