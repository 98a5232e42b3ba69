// Package posts publishes new image posts.
package posts

import (
	"context"
	"errors"
	"os"
	"strings"

	"example.com/photofeed/internal/api"
	appkafka "example.com/photofeed/internal/broker"
	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/models"
	"example.com/photofeed/internal/token"
)

var logg = logger.New()

var (
	ErrNoImage   = errors.New("posts: an image is required")
	ErrNoCaption = errors.New("posts: a caption is required")
)

// Uploader is the remote side of post creation.
type Uploader interface {
	UploadPost(ctx context.Context, caption string, image models.ImageFile) (*models.Post, error)
}

type Service struct {
	up     Uploader
	tokens api.TokenSource
	events appkafka.Publisher
}

// NewService returns a post service. pub may be nil.
func NewService(up Uploader, tokens api.TokenSource, pub appkafka.Publisher) *Service {
	if pub == nil {
		pub = appkafka.NopPublisher{}
	}
	return &Service{up: up, tokens: tokens, events: pub}
}

// Upload publishes image with caption. Both are required and the image must
// be a readable file.
func (s *Service) Upload(ctx context.Context, caption string, image models.ImageFile) (*models.Post, error) {
	tok, ok := s.tokens.Token(ctx)
	if !ok {
		return nil, &api.AuthError{Message: "not logged in"}
	}
	if image.Path == "" {
		return nil, ErrNoImage
	}
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return nil, ErrNoCaption
	}
	if _, err := os.Stat(image.Path); err != nil {
		return nil, errors.Join(ErrNoImage, err)
	}

	p, err := s.up.UploadPost(ctx, caption, image)
	if err != nil {
		logg.Error("posts", "Failed to upload post", err)
		return nil, err
	}

	uid, _ := token.UserID(tok)
	s.events.Publish(ctx, models.Activity{Kind: models.ActivityPostUpload, UserID: uid, PostID: p.ID})
	logg.Info("posts", "Uploaded post "+p.ID)
	return p, nil
}
