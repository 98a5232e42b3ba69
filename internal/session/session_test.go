package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"example.com/photofeed/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects navigations.
type recorder struct {
	mu    sync.Mutex
	views []View
}

func (r *recorder) Navigate(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *recorder) seen() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.views...)
}

// gatedStore blocks Get until release is closed.
type gatedStore struct {
	*store.MockStore
	release chan struct{}
}

func (g *gatedStore) Get(ctx context.Context, key string) (string, bool, error) {
	<-g.release
	return g.MockStore.Get(ctx, key)
}

func TestSetThenGetReturnsToken(t *testing.T) {
	s := New(store.NewMock())
	ctx := context.Background()

	for _, tok := range []string{"abc.def.ghi", "opaque", "eyJhbGciOiJIUzI1NiJ9.eyJpZCI6InUxIn0.sig"} {
		require.NoError(t, s.SetToken(ctx, tok))
		got, ok := s.Token(ctx)
		require.True(t, ok)
		assert.Equal(t, tok, got)
	}
}

func TestDeleteThenGetIsAbsent(t *testing.T) {
	s := New(store.NewMock())
	ctx := context.Background()

	require.NoError(t, s.SetToken(ctx, "abc.def.ghi"))
	s.DeleteToken(ctx)

	_, ok := s.Token(ctx)
	assert.False(t, ok)
}

func TestSetToken_RejectsMalformed(t *testing.T) {
	s := New(store.NewMock())
	assert.ErrorIs(t, s.SetToken(context.Background(), ""), ErrMalformedToken)
	assert.ErrorIs(t, s.SetToken(context.Background(), "two words"), ErrMalformedToken)
}

func TestStorageErrors(t *testing.T) {
	s := New(&store.MockStoreFail{})
	ctx := context.Background()

	_, ok := s.Token(ctx)
	assert.False(t, ok, "read failure means logged out")

	err := s.SetToken(ctx, "abc.def.ghi")
	var serr *StorageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "write", serr.Op)

	s.DeleteToken(ctx) // logged, must not panic

	assert.Equal(t, ViewLogin, s.Validate(ctx, nil))
}

func TestToken_IgnoresMalformedStoredValue(t *testing.T) {
	kv := store.NewMock()
	kv.Data[TokenKey] = "not a token"
	s := New(kv)

	_, ok := s.Token(context.Background())
	assert.False(t, ok)
}

func TestValidate_NavigatesOnlyAfterReadCompletes(t *testing.T) {
	kv := &gatedStore{MockStore: store.NewMock(), release: make(chan struct{})}
	kv.Data[TokenKey] = "abc.def.ghi"
	s := New(kv)
	nav := &recorder{}

	done := make(chan View)
	go func() { done <- s.Validate(context.Background(), nav) }()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, nav.seen(), "must not navigate while the token read is pending")

	close(kv.release)
	assert.Equal(t, ViewMain, <-done)
	assert.Equal(t, []View{ViewMain}, nav.seen())
}

func TestValidate_IdempotentWithoutFlicker(t *testing.T) {
	s := New(store.NewMock())
	ctx := context.Background()
	nav := &recorder{}

	assert.Equal(t, ViewLogin, s.Validate(ctx, nav))
	assert.Equal(t, ViewLogin, s.Validate(ctx, nav))

	require.NoError(t, s.SetToken(ctx, "abc.def.ghi"))
	assert.Equal(t, ViewMain, s.Validate(ctx, nav))
	assert.Equal(t, ViewMain, s.Validate(ctx, nav))

	s.DeleteToken(ctx)
	assert.Equal(t, ViewLogin, s.Validate(ctx, nav))

	assert.Equal(t, []View{ViewLogin, ViewMain, ViewLogin}, nav.seen())
}

func TestValidate_NilNavigatorDoesNotHideFirstView(t *testing.T) {
	s := New(store.NewMock())
	ctx := context.Background()
	require.NoError(t, s.SetToken(ctx, "abc.def.ghi"))

	assert.Equal(t, ViewMain, s.Validate(ctx, nil))

	nav := &recorder{}
	assert.Equal(t, ViewMain, s.Validate(ctx, nav))
	assert.Equal(t, []View{ViewMain}, nav.seen())
}

func TestCurrentUserID(t *testing.T) {
	s := New(store.NewMock())
	ctx := context.Background()

	_, err := s.CurrentUserID(ctx)
	assert.Error(t, err)

	// {"alg":"HS256","typ":"JWT"}.{"id":"u1"}
	require.NoError(t, s.SetToken(ctx, "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJpZCI6InUxIn0.sig"))
	id, err := s.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}

func TestViewString(t *testing.T) {
	assert.Equal(t, "login", ViewLogin.String())
	assert.Equal(t, "main", ViewMain.String())
	assert.Equal(t, "unknown", ViewUnknown.String())
}
