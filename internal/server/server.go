// Package server is the composition root: it wires the database,
// services, and handlers together, mounts the routes, and runs the HTTP
// server with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nundung/gamebible/internal/auth"
	"github.com/nundung/gamebible/internal/config"
	"github.com/nundung/gamebible/internal/handler"
	"github.com/nundung/gamebible/internal/mail"
	"github.com/nundung/gamebible/internal/middleware"
	sqliteRepo "github.com/nundung/gamebible/internal/repository/sqlite"
	"github.com/nundung/gamebible/internal/service"
	"github.com/nundung/gamebible/internal/storage"
)

// Server owns the router, the configuration, and the database connection it
// must close on shutdown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain: database, token and password
// services, optional Kakao and SMTP providers, the image store, and every
// handler. Each layer receives only the interfaces it needs.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Server.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.cfg.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var kakao *auth.KakaoProvider
	if s.cfg.Kakao.ClientID != "" {
		kakao = auth.NewKakaoProvider(
			s.cfg.Kakao.ClientID,
			s.cfg.Kakao.ClientSecret,
			s.cfg.Kakao.RedirectURI,
			s.cfg.Kakao.AdminKey,
		)
	} else {
		s.logger.Warn("kakao login disabled: KAKAO_REST_API_KEY not set")
	}

	var mailer mail.Sender
	smtp := mail.NewSMTPSender(s.cfg.Email, s.logger)
	if smtp.Configured() {
		mailer = smtp
	} else {
		s.logger.Warn("email disabled: SMTP settings incomplete")
	}

	store, err := storage.NewDiskStore(s.cfg.Image.Root, s.cfg.Image.BaseURL)
	if err != nil {
		return fmt.Errorf("creating image store: %w", err)
	}

	accountService := service.NewAccountService(
		s.db, s.db, s.db, passwords, tokens, kakao, mailer,
		s.cfg.Server.BaseURL, s.logger,
	)
	gameService := service.NewGameService(s.db, s.db, s.logger)
	adminService := service.NewAdminService(s.db, store, s.logger)
	postService := service.NewPostService(s.db, s.db, store, s.logger)
	commentService := service.NewCommentService(s.db, s.logger)
	logService := service.NewLogService(s.db)

	accountHandler := handler.NewAccountHandler(accountService, store, s.logger)
	gameHandler := handler.NewGameHandler(gameService, s.logger)
	adminHandler := handler.NewAdminHandler(adminService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)
	commentHandler := handler.NewCommentHandler(commentService, s.logger)
	logHandler := handler.NewLogHandler(logService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	requireAdmin := auth.RequireAdmin(tokens)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.RequestLog(s.db, s.logger))

	// Uploaded images are served straight from disk under the public
	// image prefix.
	imagePrefix := strings.TrimRight(s.cfg.Image.BaseURL, "/") + "/"
	fileServer := http.FileServer(http.Dir(store.Root()))
	s.router.Handle(imagePrefix+"*", http.StripPrefix(imagePrefix, fileServer))

	s.router.Route("/account", func(r chi.Router) {
		accountHandler.Routes(r, requireAuth)
	})
	s.router.Route("/admin", func(r chi.Router) {
		r.Use(requireAdmin)
		adminHandler.Routes(r)
	})
	s.router.Route("/game", func(r chi.Router) {
		gameHandler.Routes(r, requireAuth)
	})
	s.router.Route("/post", func(r chi.Router) {
		postHandler.Routes(r, requireAuth)
	})
	s.router.Route("/comment", func(r chi.Router) {
		commentHandler.Routes(r, requireAuth)
	})
	s.router.Route("/log", func(r chi.Router) {
		r.Use(requireAdmin)
		logHandler.Routes(r)
	})

	return nil
}

// Start runs the server until a shutdown signal arrives, then drains
// in-flight requests and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Server.Port),
			slog.String("database", s.cfg.Server.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped")
	}

	return nil
}

// Router exposes the configured router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
