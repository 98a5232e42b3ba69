// Package auth implements the login, registration and logout flows. It is the
// only writer of the session token.
package auth

import (
	"context"
	"strings"

	"example.com/photofeed/internal/api"
	appkafka "example.com/photofeed/internal/broker"
	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/models"
	"example.com/photofeed/internal/token"
)

var logg = logger.New()

// Backend is the remote side of authentication.
type Backend interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, email, password, username string) (string, error)
}

// Session persists the token.
type Session interface {
	Token(ctx context.Context) (string, bool)
	SetToken(ctx context.Context, tok string) error
	DeleteToken(ctx context.Context)
}

type Service struct {
	backend Backend
	session Session
	events  appkafka.Publisher
}

// NewService wires the auth flows. pub may be nil.
func NewService(backend Backend, sess Session, pub appkafka.Publisher) *Service {
	if pub == nil {
		pub = appkafka.NopPublisher{}
	}
	return &Service{backend: backend, session: sess, events: pub}
}

// Login exchanges credentials for a token and stores it. Empty credentials
// are rejected without contacting the server.
func (s *Service) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return &api.AuthError{Message: "email and password are required"}
	}

	tok, err := s.backend.Login(ctx, email, password)
	if err != nil {
		logg.Error("auth", "Login failed for "+email, err)
		return err
	}
	if err := s.session.SetToken(ctx, tok); err != nil {
		return err
	}

	uid, _ := token.UserID(tok)
	s.events.Publish(ctx, models.Activity{Kind: models.ActivityLogin, UserID: uid})
	logg.Info("auth", "Logged in as "+email)
	return nil
}

// Register creates an account and returns the server's message. It does not
// log the user in.
func (s *Service) Register(ctx context.Context, email, password, username string) (string, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || password == "" || username == "" {
		return "", &api.AuthError{Message: "email, password and username are required"}
	}
	msg, err := s.backend.Register(ctx, email, password, username)
	if err != nil {
		logg.Error("auth", "Registration failed for "+email, err)
		return "", err
	}
	return msg, nil
}

// Logout removes the token. It is safe to call when already logged out.
func (s *Service) Logout(ctx context.Context) {
	tok, ok := s.session.Token(ctx)
	s.session.DeleteToken(ctx)
	if !ok {
		return
	}
	uid, _ := token.UserID(tok)
	s.events.Publish(ctx, models.Activity{Kind: models.ActivityLogout, UserID: uid})
	logg.Info("auth", "Logged out")
}
