package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is wrapped by every schema validation failure.
var ErrInvalid = errors.New("invalid payload")

type User struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Description    string `json:"description,omitempty"`
}

func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: user without _id", ErrInvalid)
	}
	return nil
}

// UserRef is the owning or acting user embedded in posts and notifications.
// The server sends either a populated object or a bare id string.
type UserRef struct {
	ID             string `json:"_id,omitempty"`
	Username       string `json:"username,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = UserRef{ID: id}
		return nil
	}
	type plain UserRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: user reference: %v", ErrInvalid, err)
	}
	*r = UserRef(p)
	return nil
}

type Post struct {
	ID        string    `json:"_id"`
	User      UserRef   `json:"user"`
	ImageURL  string    `json:"imageUrl"`
	Caption   string    `json:"caption"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the post and drops duplicate likes, keeping first occurrences.
func (p *Post) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: post without _id", ErrInvalid)
	}
	if len(p.Likes) < 2 {
		return nil
	}
	seen := make(map[string]struct{}, len(p.Likes))
	likes := p.Likes[:0]
	for _, id := range p.Likes {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		likes = append(likes, id)
	}
	p.Likes = likes
	return nil
}

// LikedBy reports whether userID is in the liking set.
func (p Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// WithLike returns a copy of p with userID added to the liking set.
// The second result is false when userID was already present.
func (p Post) WithLike(userID string) (Post, bool) {
	if p.LikedBy(userID) {
		return p, false
	}
	likes := make([]string, len(p.Likes), len(p.Likes)+1)
	copy(likes, p.Likes)
	p.Likes = append(likes, userID)
	return p, true
}

type NotificationType string

const (
	NotificationFollow NotificationType = "follow"
	NotificationLike   NotificationType = "like"
)

func (t *NotificationType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: notification type: %v", ErrInvalid, err)
	}
	switch NotificationType(s) {
	case NotificationFollow, NotificationLike:
		*t = NotificationType(s)
		return nil
	}
	return fmt.Errorf("%w: unknown notification type %q", ErrInvalid, s)
}

type Notification struct {
	ID        string           `json:"_id"`
	Type      NotificationType `json:"type"`
	From      UserRef          `json:"fromUserId"`
	CreatedAt time.Time        `json:"createdAt"`
}

func (n Notification) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("%w: notification without _id", ErrInvalid)
	}
	if n.Type == "" {
		return fmt.Errorf("%w: notification without type", ErrInvalid)
	}
	return nil
}

// Message renders the notification the way it is shown in the list.
func (n Notification) Message() string {
	if n.Type == NotificationFollow {
		return n.From.Username + " started following you."
	}
	return n.From.Username + " liked your post."
}

type Profile struct {
	User  User   `json:"user"`
	Posts []Post `json:"posts"`
}

func (p *Profile) Validate() error {
	if err := p.User.Validate(); err != nil {
		return err
	}
	for i := range p.Posts {
		if err := p.Posts[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ImageFile is a local image reference, as produced by a picker or camera.
type ImageFile struct {
	Path     string
	MimeType string
	Name     string
}

// ActivityKind names a client action published to the activity stream.
type ActivityKind string

const (
	ActivityLogin       ActivityKind = "login"
	ActivityLogout      ActivityKind = "logout"
	ActivityLike        ActivityKind = "like"
	ActivityPostUpload  ActivityKind = "post_upload"
	ActivityProfileEdit ActivityKind = "profile_edit"
)

type Activity struct {
	ID         string       `json:"id"`
	Kind       ActivityKind `json:"kind"`
	UserID     string       `json:"user_id,omitempty"`
	PostID     string       `json:"post_id,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
