package server

import (
	"context"
	"net/http"
	"time"

	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL       = 24 * time.Hour
	maxUploadBytes = 10 << 20
)

// Server is an in-memory implementation of the photo feed API, for local
// development and end-to-end tests.
type Server struct {
	data     *memData
	secret   []byte
	hashCost int
}

var logg = logger.New()

// NewServer returns an empty server signing tokens with secret.
func NewServer(secret []byte) *Server {
	return &Server{
		data:     newMemData(),
		secret:   secret,
		hashCost: bcrypt.DefaultCost,
	}
}

// Routes builds the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.healthHandler)
	r.Get("/uploads/{name}", s.uploadHandler)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/login", s.loginHandler)
		r.Post("/auth/register", s.registerHandler)

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(s.secret))

			r.Get("/user/all", s.listUsersHandler)
			r.Get("/user/profile/{id}", s.profileHandler)
			r.Put("/user/profile/edit", s.editProfileHandler)
			r.Post("/user/{id}/follow", s.followHandler)
			r.Get("/user/notifications", s.notificationsHandler)

			r.Get("/posts/feed", s.feedHandler)
			r.Post("/posts/upload", s.uploadPostHandler)
			r.Post("/posts/{id}/like", s.likeHandler)
		})
	})
	return r
}

// Run serves the API on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, secret []byte) error {
	s := NewServer(secret)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second, // prevent slowloris attacks
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("server", "Starting HTTP server on "+addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error("server", "Server stopped unexpectedly", err)
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logg.Info("server", "Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server", "Error during server shutdown", err)
		return err
	}
	logg.Info("server", "Server stopped gracefully")
	return nil
}
