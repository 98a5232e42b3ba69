// Package feed keeps the current user's feed and reconciles like state with
// the server.
//
// Loads are tagged with a generation; a load whose generation has been
// overtaken by a newer one is discarded instead of applied. A failed load
// keeps the posts from the last successful one.
//
// Likes only go one way: NotLiked -> LikePending -> Liked, with a server
// error returning LikePending to NotLiked. There is no unlike.
package feed

import (
	"context"
	"errors"
	"sync"

	"example.com/photofeed/internal/api"
	appkafka "example.com/photofeed/internal/broker"
	"example.com/photofeed/internal/generation"
	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/models"
	"example.com/photofeed/internal/token"
)

var logg = logger.New()

var (
	// ErrSuperseded is returned by a load overtaken by a newer one.
	ErrSuperseded = errors.New("feed: superseded by a newer load")
	// ErrUnknownPost is returned when liking a post that is not in the feed.
	ErrUnknownPost = errors.New("feed: post not loaded")
)

// LikeState is the like affordance of a single post for the current user.
type LikeState int

const (
	NotLiked LikeState = iota
	LikePending
	Liked
)

func (s LikeState) String() string {
	switch s {
	case LikePending:
		return "pending"
	case Liked:
		return "liked"
	default:
		return "not_liked"
	}
}

// StateOf returns the settled like state of p for userID.
func StateOf(p models.Post, userID string) LikeState {
	if userID != "" && p.LikedBy(userID) {
		return Liked
	}
	return NotLiked
}

// Source is the remote side of the feed.
type Source interface {
	Feed(ctx context.Context) ([]models.Post, error)
	Like(ctx context.Context, postID string) error
}

// Synchronizer holds the loaded feed for one screen.
type Synchronizer struct {
	src    Source
	tokens api.TokenSource
	events appkafka.Publisher

	loads generation.Counter

	mu      sync.Mutex
	posts   []models.Post
	userID  string
	pending map[string]bool
	err     error
}

// New returns a Synchronizer reading posts from src. pub may be nil.
func New(src Source, tokens api.TokenSource, pub appkafka.Publisher) *Synchronizer {
	if pub == nil {
		pub = appkafka.NopPublisher{}
	}
	return &Synchronizer{
		src:     src,
		tokens:  tokens,
		events:  pub,
		pending: make(map[string]bool),
	}
}

// Load fetches the feed and replaces the held posts, in server order.
// On failure the held posts are kept and the error is also available from Err.
func (s *Synchronizer) Load(ctx context.Context) ([]models.Post, error) {
	tok, ok := s.tokens.Token(ctx)
	if !ok {
		return nil, &api.AuthError{Message: "not logged in"}
	}
	userID, err := token.UserID(tok)
	if err != nil {
		// likes render as NotLiked until the token can be decoded
		logg.Warn("feed", "Could not decode current user from token", err)
	}

	gen := s.loads.Next()
	posts, fetchErr := s.src.Feed(ctx)

	var out []models.Post
	applied := s.loads.Apply(gen, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.userID = userID
		if fetchErr != nil {
			s.err = fetchErr
			return
		}
		s.posts = posts
		s.err = nil
		out = clonePosts(posts)
	})
	if !applied {
		logg.Debug("feed", "Discarded stale feed response")
		return nil, ErrSuperseded
	}
	if fetchErr != nil {
		logg.Error("feed", "Failed to load feed, keeping previous posts", fetchErr)
		return nil, fetchErr
	}

	logg.Info("feed", "Feed loaded")
	return out, nil
}

// ToggleLike likes postID as the current user. Liking an already liked or
// pending post is a no-op. On success the post is patched locally and the
// feed is refreshed; a failed refresh is reported through Err only.
func (s *Synchronizer) ToggleLike(ctx context.Context, postID string) error {
	tok, ok := s.tokens.Token(ctx)
	if !ok {
		return &api.AuthError{Message: "not logged in"}
	}
	userID, err := token.UserID(tok)
	if err != nil {
		return &api.AuthError{Message: "session token does not identify a user"}
	}

	s.mu.Lock()
	i := s.indexOf(postID)
	if i < 0 {
		s.mu.Unlock()
		return ErrUnknownPost
	}
	if s.pending[postID] || s.posts[i].LikedBy(userID) {
		s.mu.Unlock()
		return nil
	}
	s.pending[postID] = true
	s.mu.Unlock()

	likeErr := s.src.Like(ctx, postID)

	s.mu.Lock()
	delete(s.pending, postID)
	if likeErr != nil {
		s.mu.Unlock()
		logg.Error("feed", "Like failed, reverting", likeErr)
		return likeErr
	}
	if i := s.indexOf(postID); i >= 0 {
		s.posts[i], _ = s.posts[i].WithLike(userID)
	}
	s.mu.Unlock()

	s.events.Publish(ctx, models.Activity{Kind: models.ActivityLike, UserID: userID, PostID: postID})

	if _, err := s.Load(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		logg.Warn("feed", "Refresh after like failed", err)
	}
	return nil
}

// LikeState returns the like state of a loaded post for the current user.
func (s *Synchronizer) LikeState(postID string) LikeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[postID] {
		return LikePending
	}
	i := s.indexOf(postID)
	if i < 0 {
		return NotLiked
	}
	return StateOf(s.posts[i], s.userID)
}

// Posts returns a copy of the held posts.
func (s *Synchronizer) Posts() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePosts(s.posts)
}

// Err returns the error of the last applied load, or nil.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// CurrentUserID returns the user id decoded during the last applied load.
func (s *Synchronizer) CurrentUserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// indexOf must be called with s.mu held.
func (s *Synchronizer) indexOf(postID string) int {
	for i := range s.posts {
		if s.posts[i].ID == postID {
			return i
		}
	}
	return -1
}

func clonePosts(posts []models.Post) []models.Post {
	if posts == nil {
		return nil
	}
	out := make([]models.Post, len(posts))
	for i, p := range posts {
		p.Likes = append([]string(nil), p.Likes...)
		out[i] = p
	}
	return out
}
