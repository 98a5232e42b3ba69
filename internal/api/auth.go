package api

import (
	"context"
	"errors"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// Login exchanges credentials for a session token. A rejected login is an
// *AuthError carrying the server message.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		Token   string `json:"token"`
		Message string `json:"message"`
	}
	err := c.postJSON(ctx, "/api/auth/login", false, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return "", asAuthError(err, "login failed")
	}
	if resp.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = "login failed"
		}
		return "", &AuthError{Message: msg}
	}
	return resp.Token, nil
}

// Register creates an account. The server answers with {message} either way.
func (c *Client) Register(ctx context.Context, email, password, username string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	body := registerRequest{Email: email, Password: password, Username: username}
	if err := c.postJSON(ctx, "/api/auth/register", false, body, &resp); err != nil {
		return "", asAuthError(err, "registration failed")
	}
	return resp.Message, nil
}

// asAuthError turns a rejected credentials response into an *AuthError.
// Transport failures and server errors stay NetworkErrors.
func asAuthError(err error, fallback string) error {
	var nerr *NetworkError
	if !errors.As(err, &nerr) || nerr.StatusCode == 0 || nerr.StatusCode >= http.StatusInternalServerError {
		return err
	}
	msg := nerr.Message
	if msg == "" {
		msg = fallback
	}
	return &AuthError{Message: msg}
}
