package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"example.com/photofeed/internal/api"
	appkafka "example.com/photofeed/internal/broker"
	"example.com/photofeed/internal/feed"
	"example.com/photofeed/internal/models"
	"example.com/photofeed/internal/session"
	"example.com/photofeed/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	token      string
	err        error
	loginCalls int
}

func (b *stubBackend) Login(ctx context.Context, email, password string) (string, error) {
	b.loginCalls++
	return b.token, b.err
}

func (b *stubBackend) Register(ctx context.Context, email, password, username string) (string, error) {
	return "User registered successfully", b.err
}

func TestLogin_EmptyCredentialsNeverReachServer(t *testing.T) {
	backend := &stubBackend{token: "abc.def.ghi"}
	kv := store.NewMock()
	svc := NewService(backend, session.New(kv), nil)

	for _, c := range []struct{ email, password string }{
		{"", "pw"},
		{"a@b.c", ""},
		{"   ", "pw"},
	} {
		err := svc.Login(context.Background(), c.email, c.password)
		var aerr *api.AuthError
		assert.True(t, errors.As(err, &aerr), "email=%q password=%q", c.email, c.password)
	}
	assert.Zero(t, backend.loginCalls)
	assert.Zero(t, kv.Len())
}

func TestLogin_StoresTokenAndPublishes(t *testing.T) {
	// {"alg":"HS256","typ":"JWT"}.{"id":"u1"}.sig
	const tok = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJpZCI6InUxIn0.sig"
	pub := &appkafka.RecordingPublisher{}
	sess := session.New(store.NewMock())
	svc := NewService(&stubBackend{token: tok}, sess, pub)

	require.NoError(t, svc.Login(context.Background(), "a@b.c", "pw"))

	got, ok := sess.Token(context.Background())
	require.True(t, ok)
	assert.Equal(t, tok, got)
	assert.Equal(t, []models.ActivityKind{models.ActivityLogin}, pub.Kinds())
}

func TestLogin_RejectedKeepsPreviousSession(t *testing.T) {
	sess := session.New(store.NewMock())
	require.NoError(t, sess.SetToken(context.Background(), "old.token.value"))
	svc := NewService(&stubBackend{err: &api.AuthError{Message: "Invalid credentials"}}, sess, nil)

	err := svc.Login(context.Background(), "a@b.c", "bad")
	require.Error(t, err)

	got, _ := sess.Token(context.Background())
	assert.Equal(t, "old.token.value", got)
}

func TestLogin_StorageFailureIsReported(t *testing.T) {
	svc := NewService(&stubBackend{token: "abc.def.ghi"}, session.New(&store.MockStoreFail{}), nil)

	err := svc.Login(context.Background(), "a@b.c", "pw")
	var serr *session.StorageError
	assert.True(t, errors.As(err, &serr))
}

func TestLogout_RemovesTokenAndIsIdempotent(t *testing.T) {
	pub := &appkafka.RecordingPublisher{}
	sess := session.New(store.NewMock())
	svc := NewService(&stubBackend{token: "abc.def.ghi"}, sess, pub)
	require.NoError(t, svc.Login(context.Background(), "a@b.c", "pw"))

	svc.Logout(context.Background())
	svc.Logout(context.Background())

	_, ok := sess.Token(context.Background())
	assert.False(t, ok)
	assert.Equal(t, []models.ActivityKind{models.ActivityLogin, models.ActivityLogout}, pub.Kinds())
}

func TestRegister_RequiresAllFields(t *testing.T) {
	svc := NewService(&stubBackend{}, session.New(store.NewMock()), nil)

	_, err := svc.Register(context.Background(), "a@b.c", "pw", "")
	var aerr *api.AuthError
	assert.True(t, errors.As(err, &aerr))

	msg, err := svc.Register(context.Background(), "a@b.c", "pw", "nur")
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully", msg)
}

// A token issued by the server is stored verbatim and sent back as the bearer
// credential on the next feed request.
func TestLoginThenFeedSendsBearerToken(t *testing.T) {
	var (
		mu         sync.Mutex
		authHeader string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			return
		}
		assert.Equal(t, "a@b.c", body["email"])
		_, _ = io.WriteString(w, `{"token":"abc.def.ghi"}`)
	})
	mux.HandleFunc("/api/posts/feed", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		authHeader = r.Header.Get("Authorization")
		mu.Unlock()
		_, _ = io.WriteString(w, `[]`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	kv := store.NewMock()
	sess := session.New(kv)
	client := api.New(ts.URL, api.WithTokenSource(sess))
	svc := NewService(client, sess, nil)

	require.NoError(t, svc.Login(context.Background(), "a@b.c", "pw"))
	assert.Equal(t, "abc.def.ghi", kv.Data[session.TokenKey])

	_, err := feed.New(client, sess, nil).Load(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer abc.def.ghi", authHeader)
}
