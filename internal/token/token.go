// Package token reads claims out of a session token without verifying it.
// Signature and expiry checks belong to the server; the client only needs
// to know who it is.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed = errors.New("malformed token")
	ErrNoUserID  = errors.New("token carries no user id")
)

// userIDClaims lists the claim names that may carry the user id, in lookup order.
var userIDClaims = []string{"id", "user_id", "sub"}

// Claims is the decoded payload of a session token.
type Claims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// WellFormed reports whether s looks like an opaque bearer token:
// non-empty, without whitespace or control characters.
func WellFormed(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Decode parses the token payload. The signature is not checked.
func Decode(raw string) (Claims, error) {
	if !WellFormed(raw) || strings.Count(raw, ".") != 2 {
		return Claims{}, ErrMalformed
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, mc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var c Claims
	for _, name := range userIDClaims {
		if v, ok := mc[name].(string); ok && v != "" {
			c.UserID = v
			break
		}
	}
	if c.UserID == "" {
		return Claims{}, ErrNoUserID
	}

	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// UserID is a shorthand for Decode(raw).UserID.
func UserID(raw string) (string, error) {
	c, err := Decode(raw)
	if err != nil {
		return "", err
	}
	return c.UserID, nil
}
