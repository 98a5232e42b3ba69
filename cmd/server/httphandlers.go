package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"example.com/photofeed/internal/middleware"
	"example.com/photofeed/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logg.Error("http", "Failed to encode response", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// currentUser resolves the authenticated caller or writes 401.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request, module string) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		logg.Info(module, "Unauthorized request")
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	if _, ok := s.data.user(userID); !ok {
		writeMessage(w, http.StatusUnauthorized, "unknown user")
		return "", false
	}
	return userID, true
}

// --- HTTP Handlers ---

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	users, posts := s.data.stats()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "users": users, "posts": posts})
}

// registerHandler creates an account.
// Expects JSON body: {"email", "password", "username"}
// Returns {"message"}.
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error("http/register", "Invalid request body", err)
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	body.Username = strings.TrimSpace(body.Username)
	if body.Email == "" || body.Password == "" || body.Username == "" {
		writeMessage(w, http.StatusBadRequest, "email, password and username are required")
		return
	}
	if len(body.Username) > 50 {
		writeMessage(w, http.StatusBadRequest, "username must be 1-50 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), s.hashCost)
	if err != nil {
		logg.Error("http/register", "Failed to hash password", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	u, err := s.data.register(body.Email, body.Username, hash)
	if errors.Is(err, errExists) {
		writeMessage(w, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	logg.Info("http/register", "User created with id="+u.ID)
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

// loginHandler checks credentials.
// Expects JSON body: {"email", "password"}
// Returns {"token"} or {"message"} on failure.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error("http/login", "Invalid request body", err)
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, ok := s.data.accountByEmail(strings.TrimSpace(body.Email))
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(body.Password)) != nil {
		logg.Info("http/login", "Invalid credentials for "+body.Email)
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	tok, err := s.issueToken(acc.user.ID)
	if err != nil {
		logg.Error("http/login", "Failed to generate token", err)
		writeMessage(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (s *Server) issueToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *Server) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(w, r, "http/users"); !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.data.users())
}

func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(w, r, "http/profile"); !ok {
		return
	}
	id := chi.URLParam(r, "id")
	u, ok := s.data.user(id)
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, models.Profile{User: u, Posts: s.data.postsBy(id)})
}

// editProfileHandler accepts multipart (username, description, profilePicture)
// or a JSON body with the same text fields.
func (s *Server) editProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r, "http/profile")
	if !ok {
		return
	}

	var username, description, picture string
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid form")
			return
		}
		username = r.FormValue("username")
		description = r.FormValue("description")
		if len(r.MultipartForm.File["profilePicture"]) > 0 {
			url, err := s.storeUpload(r, "profilePicture")
			if err != nil {
				writeMessage(w, http.StatusBadRequest, err.Error())
				return
			}
			picture = url
		}
	} else {
		var body struct {
			Username    string `json:"username"`
			Description string `json:"description"`
		}
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		username, description = body.Username, body.Description
	}

	u, err := s.data.editUser(userID, strings.TrimSpace(username), description, picture)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	logg.Info("http/profile", "Profile updated for id="+userID)
	writeJSON(w, http.StatusOK, u)
}

// followHandler makes the caller follow {id} and notifies them.
func (s *Server) followHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r, "http/follow")
	if !ok {
		return
	}
	followee := chi.URLParam(r, "id")
	if followee == userID {
		writeMessage(w, http.StatusBadRequest, "cannot follow yourself")
		return
	}
	if err := s.data.follow(userID, followee); err != nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	logg.Info("http/follow", "User "+userID+" followed "+followee)
	writeMessage(w, http.StatusOK, "Followed")
}

func (s *Server) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r, "http/notifications")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.data.notificationsFor(userID))
}

func (s *Server) feedHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r, "http/feed")
	if !ok {
		return
	}
	feed := s.data.feed()
	logg.Debug("http/feed", "Feed retrieved for id="+userID+" with "+strconv.Itoa(len(feed))+" posts")
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) likeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r, "http/like")
	if !ok {
		return
	}
	postID := chi.URLParam(r, "id")
	if err := s.data.like(postID, userID); err != nil {
		writeMessage(w, http.StatusNotFound, "Post not found")
		return
	}
	writeMessage(w, http.StatusOK, "Post liked")
}

// uploadPostHandler expects multipart fields image and caption.
func (s *Server) uploadPostHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r, "http/posts")
	if !ok {
		return
	}
	if !isMultipart(r) {
		writeMessage(w, http.StatusBadRequest, "multipart form required")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid form")
		return
	}

	caption := strings.TrimSpace(r.FormValue("caption"))
	if caption == "" || len(caption) > 1000 {
		writeMessage(w, http.StatusBadRequest, "caption must be 1-1000 characters")
		return
	}
	url, err := s.storeUpload(r, "image")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	post := s.data.addPost(userID, caption, url)
	logg.Info("http/posts", "Post created by id="+userID)
	writeJSON(w, http.StatusCreated, post)
}

// storeUpload keeps the named image field in memory and returns its URL.
func (s *Server) storeUpload(r *http.Request, field string) (string, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return "", errors.New(field + " is required")
	}
	defer f.Close()

	mimeType := hdr.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		return "", errors.New(field + " must be an image")
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(hdr.Filename)
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	name := uuid.NewString() + ext
	s.data.putUpload(name, upload{data: data, mimeType: mimeType})
	return "/uploads/" + name, nil
}

func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := s.data.getUpload(chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", u.mimeType)
	_, _ = w.Write(u.data)
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}
