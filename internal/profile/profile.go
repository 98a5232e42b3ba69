// Package profile loads and edits user profiles.
package profile

import (
	"context"
	"errors"
	"strings"
	"sync"

	"example.com/photofeed/internal/api"
	appkafka "example.com/photofeed/internal/broker"
	"example.com/photofeed/internal/generation"
	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/models"
	"example.com/photofeed/internal/token"
)

var logg = logger.New()

// ErrSuperseded is returned by a load overtaken by a newer one.
var ErrSuperseded = errors.New("profile: superseded by a newer load")

// Source is the remote side of profiles.
type Source interface {
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	EditProfile(ctx context.Context, req api.EditProfileRequest) (*models.User, error)
}

type Service struct {
	src    Source
	tokens api.TokenSource
	events appkafka.Publisher
	loads  generation.Counter

	mu      sync.Mutex
	current *models.Profile
}

// NewService returns a profile service. pub may be nil.
func NewService(src Source, tokens api.TokenSource, pub appkafka.Publisher) *Service {
	if pub == nil {
		pub = appkafka.NopPublisher{}
	}
	return &Service{src: src, tokens: tokens, events: pub}
}

// Load fetches userID's profile. An empty userID means the logged in user.
func (s *Service) Load(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		uid, err := s.currentUserID(ctx)
		if err != nil {
			return nil, err
		}
		userID = uid
	}

	gen := s.loads.Next()
	p, err := s.src.Profile(ctx, userID)
	applied := s.loads.Apply(gen, func() {
		if err == nil {
			s.mu.Lock()
			s.current = p
			s.mu.Unlock()
		}
	})
	if !applied {
		return nil, ErrSuperseded
	}
	if err != nil {
		logg.Error("profile", "Failed to load profile", err)
		return nil, err
	}
	return p, nil
}

// Edit updates the logged in user's username, description and, optionally,
// picture.
func (s *Service) Edit(ctx context.Context, req api.EditProfileRequest) (*models.User, error) {
	uid, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return nil, errors.New("profile: username is required")
	}

	u, err := s.src.EditProfile(ctx, req)
	if err != nil {
		logg.Error("profile", "Failed to edit profile", err)
		return nil, err
	}

	s.mu.Lock()
	if s.current != nil && s.current.User.ID == u.ID {
		s.current.User = *u
	}
	s.mu.Unlock()

	s.events.Publish(ctx, models.Activity{Kind: models.ActivityProfileEdit, UserID: uid})
	return u, nil
}

// Current returns a copy of the last loaded profile, or nil.
func (s *Service) Current() *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	p := *s.current
	p.Posts = make([]models.Post, len(s.current.Posts))
	for i, post := range s.current.Posts {
		post.Likes = append([]string(nil), post.Likes...)
		p.Posts[i] = post
	}
	return &p
}

func (s *Service) currentUserID(ctx context.Context) (string, error) {
	tok, ok := s.tokens.Token(ctx)
	if !ok {
		return "", &api.AuthError{Message: "not logged in"}
	}
	uid, err := token.UserID(tok)
	if err != nil {
		return "", &api.AuthError{Message: "session token does not identify a user"}
	}
	return uid, nil
}
