package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"example.com/photofeed/internal/api"
	"example.com/photofeed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticDirectory struct {
	users []models.User
	err   error
}

func (d staticDirectory) ListUsers(context.Context) ([]models.User, error) {
	return d.users, d.err
}

var directory = []models.User{
	{ID: "1", Username: "JohnDoe", Email: "john@example.com"},
	{ID: "2", Username: "janedoe", Email: "JANE@example.com"},
	{ID: "3", Username: "Straße", Email: "strasse@example.de"},
}

func usernames(list []models.User) []string {
	out := make([]string, 0, len(list))
	for _, u := range list {
		out = append(out, u.Username)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"JohnDoe", "janedoe", "Straße"}},
		{"  ", []string{"JohnDoe", "janedoe", "Straße"}},
		{"DOE", []string{"JohnDoe", "janedoe"}},
		{"jane@", []string{"janedoe"}},
		{"STRASSE", []string{"Straße"}},
		{"nobody", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, usernames(Filter(directory, tt.query)))
		})
	}
}

func TestSearch(t *testing.T) {
	s := NewSearcher(staticDirectory{users: directory})
	got, err := s.Search(context.Background(), "john")
	require.NoError(t, err)
	assert.Equal(t, []string{"JohnDoe"}, usernames(got))
}

func TestSearch_Error(t *testing.T) {
	s := NewSearcher(staticDirectory{err: &api.NetworkError{Op: "GET /api/user/all", StatusCode: 503}})
	_, err := s.Search(context.Background(), "")
	assert.Error(t, err)
}

// gatedDirectory holds the first ListUsers call until release is closed.
type gatedDirectory struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (g *gatedDirectory) ListUsers(context.Context) ([]models.User, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()
	if first {
		<-g.release
		return []models.User{{ID: "9", Username: "stale"}}, nil
	}
	return directory, nil
}

func (g *gatedDirectory) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestSearch_StaleResponseIsDiscarded(t *testing.T) {
	dir := &gatedDirectory{release: make(chan struct{})}
	s := NewSearcher(dir)

	firstDone := make(chan error)
	go func() {
		_, err := s.Search(context.Background(), "")
		firstDone <- err
	}()
	require.Eventually(t, func() bool { return dir.callCount() == 1 }, time.Second, 5*time.Millisecond)

	got, err := s.Search(context.Background(), "doe")
	require.NoError(t, err)
	assert.Equal(t, []string{"JohnDoe", "janedoe"}, usernames(got))

	close(dir.release)
	assert.ErrorIs(t, <-firstDone, ErrSuperseded)
}
