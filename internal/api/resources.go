package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"example.com/photofeed/internal/models"
)

// --- Users ---

// ListUsers returns every user summary known to the server.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "GET /api/user/all"
	var users []models.User
	if err := c.get(ctx, "/api/user/all", &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		if err := u.Validate(); err != nil {
			return nil, &DecodeError{Op: op, Err: err}
		}
	}
	return users, nil
}

// Profile returns a user together with their posts.
func (c *Client) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, errors.New("profile: empty user id")
	}
	path := "/api/user/profile/" + url.PathEscape(userID)
	var p models.Profile
	if err := c.get(ctx, path, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, &DecodeError{Op: "GET " + path, Err: err}
	}
	return &p, nil
}

// EditProfileRequest carries the editable profile fields. Picture is optional.
type EditProfileRequest struct {
	Username    string
	Description string
	Picture     *models.ImageFile
}

// EditProfile sends the profile form as multipart and returns the updated user.
func (c *Client) EditProfile(ctx context.Context, req EditProfileRequest) (*models.User, error) {
	const op = "PUT /api/user/profile/edit"
	parts := []formPart{
		{name: "username", value: req.Username},
		{name: "description", value: req.Description},
	}
	if req.Picture != nil {
		parts = append(parts, formPart{name: "profilePicture", image: req.Picture})
	}
	body, contentType, err := multipartBody(parts)
	if err != nil {
		return nil, err
	}

	var resp struct {
		models.User
		Wrapped *models.User `json:"user"`
	}
	r := request{method: http.MethodPut, path: "/api/user/profile/edit", auth: true, body: body, contentType: contentType}
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	u := resp.User
	if resp.Wrapped != nil {
		u = *resp.Wrapped
	}
	if err := u.Validate(); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return &u, nil
}

// --- Posts ---

// Feed returns the current user's feed in server order.
func (c *Client) Feed(ctx context.Context) ([]models.Post, error) {
	const op = "GET /api/posts/feed"
	var posts []models.Post
	if err := c.get(ctx, "/api/posts/feed", &posts); err != nil {
		return nil, err
	}
	for i := range posts {
		if err := posts[i].Validate(); err != nil {
			return nil, &DecodeError{Op: op, Err: err}
		}
	}
	return posts, nil
}

// Like adds the current user to a post's likes.
func (c *Client) Like(ctx context.Context, postID string) error {
	if postID == "" {
		return errors.New("like: empty post id")
	}
	return c.postJSON(ctx, "/api/posts/"+url.PathEscape(postID)+"/like", true, nil, nil)
}

// UploadPost publishes an image with a caption.
func (c *Client) UploadPost(ctx context.Context, caption string, image models.ImageFile) (*models.Post, error) {
	const op = "POST /api/posts/upload"
	body, contentType, err := multipartBody([]formPart{
		{name: "image", image: &image},
		{name: "caption", value: caption},
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		models.Post
		Wrapped *models.Post `json:"post"`
	}
	r := request{method: http.MethodPost, path: "/api/posts/upload", auth: true, body: body, contentType: contentType}
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	p := resp.Post
	if resp.Wrapped != nil {
		p = *resp.Wrapped
	}
	if err := p.Validate(); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return &p, nil
}

// --- Notifications ---

// Notifications returns the notification list as delivered by the server.
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	const op = "GET /api/user/notifications"
	var list []models.Notification
	if err := c.get(ctx, "/api/user/notifications", &list); err != nil {
		return nil, err
	}
	for _, n := range list {
		if err := n.Validate(); err != nil {
			return nil, &DecodeError{Op: op, Err: err}
		}
	}
	return list, nil
}
