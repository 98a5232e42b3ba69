package server

import (
	"errors"
	"strings"
	"sync"
	"time"

	"example.com/photofeed/internal/models"
	"github.com/google/uuid"
)

var (
	errNotFound = errors.New("not found")
	errExists   = errors.New("already exists")
)

type account struct {
	user models.User
	hash []byte
}

type upload struct {
	data     []byte
	mimeType string
}

// memData is the dev server's in-memory state.
type memData struct {
	mu            sync.RWMutex
	accounts      map[string]*account // by user id
	byEmail       map[string]string
	order         []string // user ids in registration order
	posts         []*models.Post
	notifications map[string][]models.Notification // by recipient id
	follows       map[string]map[string]bool       // follower -> followees
	uploads       map[string]upload
	now           func() time.Time
}

func newMemData() *memData {
	return &memData{
		accounts:      make(map[string]*account),
		byEmail:       make(map[string]string),
		notifications: make(map[string][]models.Notification),
		follows:       make(map[string]map[string]bool),
		uploads:       make(map[string]upload),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (d *memData) register(email, username string, hash []byte) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := d.byEmail[key]; ok {
		return models.User{}, errExists
	}
	for _, a := range d.accounts {
		if strings.EqualFold(a.user.Username, username) {
			return models.User{}, errExists
		}
	}

	u := models.User{ID: uuid.NewString(), Username: username, Email: email}
	d.accounts[u.ID] = &account{user: u, hash: hash}
	d.byEmail[key] = u.ID
	d.order = append(d.order, u.ID)
	return u, nil
}

func (d *memData) accountByEmail(email string) (account, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[strings.ToLower(email)]
	if !ok {
		return account{}, false
	}
	return *d.accounts[id], true
}

func (d *memData) users() []models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.User, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.accounts[id].user)
	}
	return out
}

func (d *memData) user(id string) (models.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[id]
	if !ok {
		return models.User{}, false
	}
	return a.user, true
}

func (d *memData) editUser(id, username, description, picture string) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accounts[id]
	if !ok {
		return models.User{}, errNotFound
	}
	if username != "" {
		a.user.Username = username
	}
	a.user.Description = description
	if picture != "" {
		a.user.ProfilePicture = picture
	}
	return a.user, nil
}

// ref must be called with d.mu held.
func (d *memData) ref(id string) models.UserRef {
	a, ok := d.accounts[id]
	if !ok {
		return models.UserRef{ID: id}
	}
	return models.UserRef{ID: id, Username: a.user.Username, ProfilePicture: a.user.ProfilePicture}
}

func (d *memData) addPost(userID, caption, imageURL string) models.Post {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := &models.Post{
		ID:        uuid.NewString(),
		User:      d.ref(userID),
		ImageURL:  imageURL,
		Caption:   caption,
		Likes:     []string{},
		CreatedAt: d.now(),
	}
	d.posts = append(d.posts, p)
	return d.copyPost(p)
}

// feed returns every post, newest first.
func (d *memData) feed() []models.Post {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Post, 0, len(d.posts))
	for i := len(d.posts) - 1; i >= 0; i-- {
		out = append(out, d.copyPost(d.posts[i]))
	}
	return out
}

func (d *memData) postsBy(userID string) []models.Post {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []models.Post{}
	for i := len(d.posts) - 1; i >= 0; i-- {
		if d.posts[i].User.ID == userID {
			out = append(out, d.copyPost(d.posts[i]))
		}
	}
	return out
}

// copyPost refreshes the embedded user and must be called with d.mu held.
func (d *memData) copyPost(p *models.Post) models.Post {
	c := *p
	c.User = d.ref(p.User.ID)
	c.Likes = append([]string{}, p.Likes...)
	return c
}

// like adds userID to the post's likes and notifies the owner. Liking twice
// changes nothing.
func (d *memData) like(postID, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.posts {
		if p.ID != postID {
			continue
		}
		updated, added := p.WithLike(userID)
		if !added {
			return nil
		}
		*p = updated
		if p.User.ID != userID {
			d.notify(p.User.ID, models.NotificationLike, userID)
		}
		return nil
	}
	return errNotFound
}

func (d *memData) follow(followerID, followeeID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.accounts[followeeID]; !ok {
		return errNotFound
	}
	set, ok := d.follows[followerID]
	if !ok {
		set = make(map[string]bool)
		d.follows[followerID] = set
	}
	if set[followeeID] {
		return nil
	}
	set[followeeID] = true
	d.notify(followeeID, models.NotificationFollow, followerID)
	return nil
}

// notify must be called with d.mu held.
func (d *memData) notify(recipient string, kind models.NotificationType, from string) {
	d.notifications[recipient] = append(d.notifications[recipient], models.Notification{
		ID:        uuid.NewString(),
		Type:      kind,
		From:      d.ref(from),
		CreatedAt: d.now(),
	})
}

// notificationsFor returns the recipient's notifications in creation order;
// ordering for display is the client's job.
func (d *memData) notificationsFor(userID string) []models.Notification {
	d.mu.RLock()
	defer d.mu.RUnlock()
	list := d.notifications[userID]
	out := make([]models.Notification, len(list))
	for i, n := range list {
		n.From = d.ref(n.From.ID)
		out[i] = n
	}
	return out
}

func (d *memData) putUpload(name string, u upload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uploads[name] = u
}

func (d *memData) getUpload(name string) (upload, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.uploads[name]
	return u, ok
}

func (d *memData) stats() (users, posts int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.accounts), len(d.posts)
}
