// Package users searches the user directory.
package users

import (
	"context"
	"errors"
	"strings"

	"example.com/photofeed/internal/generation"
	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/models"
	"golang.org/x/text/cases"
)

var logg = logger.New()

// ErrSuperseded is returned by a search overtaken by a newer one.
var ErrSuperseded = errors.New("users: superseded by a newer search")

// Directory lists every user known to the server.
type Directory interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

type Searcher struct {
	dir      Directory
	searches generation.Counter
}

func NewSearcher(dir Directory) *Searcher {
	return &Searcher{dir: dir}
}

// Search returns the users whose username or email contains query, ignoring
// case. An empty query matches everyone. Server order is kept.
func (s *Searcher) Search(ctx context.Context, query string) ([]models.User, error) {
	gen := s.searches.Next()
	all, err := s.dir.ListUsers(ctx)
	if !s.searches.IsLatest(gen) {
		return nil, ErrSuperseded
	}
	if err != nil {
		logg.Error("users", "Failed to list users", err)
		return nil, err
	}
	return Filter(all, query), nil
}

// Filter applies the search match to a user list.
func Filter(all []models.User, query string) []models.User {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := make([]models.User, 0, len(all))
	for _, u := range all {
		if strings.Contains(fold.String(u.Username), q) || strings.Contains(fold.String(u.Email), q) {
			out = append(out, u)
		}
	}
	return out
}
