package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"example.com/photofeed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticToken(tok string) TokenSource {
	return TokenFunc(func(context.Context) (string, bool) { return tok, tok != "" })
}

func newTestClient(t *testing.T, h http.HandlerFunc, tok string) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return New(ts.URL, WithTokenSource(staticToken(tok)))
}

func TestLogin_ReturnsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body loginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body.Email)
		assert.Equal(t, "x", body.Password)

		_, _ = io.WriteString(w, `{"token":"abc.def.ghi"}`)
	}, "")

	tok, err := c.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)
}

func TestLogin_RejectedIsAuthError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
	}, "")

	_, err := c.Login(context.Background(), "a@b.com", "bad")
	var aerr *AuthError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, "Invalid credentials", aerr.Message)
}

func TestLogin_ServerFailureIsNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, "")

	_, err := c.Login(context.Background(), "a@b.com", "x")
	var nerr *NetworkError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, http.StatusInternalServerError, nerr.StatusCode)
}

func TestFeed_SendsBearerAndValidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc.def.ghi", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"_id":"p1","user":{"username":"nur"},"imageUrl":"x.png","caption":"c","likes":["u1","u1"],"createdAt":"2024-11-11T22:10:16Z"}]`)
	}, "abc.def.ghi")

	posts, err := c.Feed(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"u1"}, posts[0].Likes)
}

func TestFeed_MissingIDIsDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"caption":"no id"}]`)
	}, "tok")

	_, err := c.Feed(context.Background())
	var derr *DecodeError
	require.True(t, errors.As(err, &derr))
	assert.ErrorIs(t, err, models.ErrInvalid)
}

func TestFeed_WithoutTokenIsAuthError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent without a token")
	}, "")

	_, err := c.Feed(context.Background())
	var aerr *AuthError
	assert.True(t, errors.As(err, &aerr))
}

func TestLike_PostsToPostPath(t *testing.T) {
	var gotPath, gotMethod string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusOK)
	}, "tok")

	require.NoError(t, c.Like(context.Background(), "p1"))
	assert.Equal(t, "/api/posts/p1/like", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestNotifications_UnreachableIsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := New(url, WithTokenSource(staticToken("tok")))
	_, err := c.Notifications(context.Background())

	var nerr *NetworkError
	require.True(t, errors.As(err, &nerr))
	assert.Zero(t, nerr.StatusCode)
}

func TestUploadPost_Multipart(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "cat.png")
	require.NoError(t, os.WriteFile(img, []byte("png-bytes"), 0o600))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Look at this cat", r.FormValue("caption"))

		f, hdr, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "png-bytes", string(data))
		assert.Equal(t, "cat.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))

		_, _ = io.WriteString(w, `{"post":{"_id":"p9","user":"u1","imageUrl":"uploads/cat.png","caption":"Look at this cat","likes":[]}}`)
	}, "tok")

	p, err := c.UploadPost(context.Background(), "Look at this cat", models.ImageFile{Path: img, MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "p9", p.ID)
	assert.Equal(t, "u1", p.User.ID)
}

func TestEditProfile_AcceptsBareUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "almaz", r.FormValue("username"))
		_, _ = io.WriteString(w, `{"_id":"u1","username":"almaz","description":"hi"}`)
	}, "tok")

	u, err := c.EditProfile(context.Background(), EditProfileRequest{Username: "almaz", Description: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", u.Description)
}

func TestServerMessage(t *testing.T) {
	assert.Equal(t, "nope", serverMessage([]byte(`{"message":"nope"}`)))
	assert.Equal(t, "bad", serverMessage([]byte(`{"error":"bad"}`)))
	assert.Equal(t, "plain text", serverMessage([]byte("plain text\n")))
}

func TestServerMessage_TruncatesOnRuneBoundary(t *testing.T) {
	// 199 ASCII bytes put the 200-byte cut inside the first "é"
	body := strings.Repeat("a", 199) + strings.Repeat("é", 10)

	msg := serverMessage([]byte(body))
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, 200, utf8.RuneCountInString(msg))
	assert.True(t, strings.HasSuffix(msg, "é"))
}
