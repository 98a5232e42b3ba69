// Package session owns the bearer token: it persists, reads and removes it,
// and decides whether the user belongs on the login or the main view.
//
// Only the login/logout flow writes the token; every other component reads it.
package session

import (
	"context"
	"errors"
	"fmt"

	"example.com/photofeed/internal/generation"
	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/store"
	"example.com/photofeed/internal/token"
)

// TokenKey is the key the token is stored under.
const TokenKey = "authToken"

var logg = logger.New()

var ErrMalformedToken = errors.New("malformed token")

// StorageError reports a failed token read or write. Reads that fail are
// treated as "logged out".
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("token %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// View is the top-level view the user should see.
type View int

const (
	ViewUnknown View = iota
	ViewLogin
	ViewMain
)

func (v View) String() string {
	switch v {
	case ViewLogin:
		return "login"
	case ViewMain:
		return "main"
	default:
		return "unknown"
	}
}

// Navigator switches the top-level view.
type Navigator interface {
	Navigate(View)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(View)

func (f NavigatorFunc) Navigate(v View) { f(v) }

// Store is the single source of truth for the session token.
type Store struct {
	kv store.KVStore

	validations generation.Counter
	shown       View // guarded by validations.Apply
}

// New returns a Store persisting into kv.
func New(kv store.KVStore) *Store {
	return &Store{kv: kv}
}

// Token returns the stored token. Storage failures and malformed values are
// logged and reported as no token.
func (s *Store) Token(ctx context.Context) (string, bool) {
	tok, ok, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		logg.Error("session", "Failed to read token", &StorageError{Op: "read", Err: err})
		return "", false
	}
	if !ok {
		return "", false
	}
	if !token.WellFormed(tok) {
		logg.Warn("session", "Stored token is malformed, treating as logged out", nil)
		return "", false
	}
	return tok, true
}

// SetToken persists tok, replacing any previous token. The next Token call sees it.
func (s *Store) SetToken(ctx context.Context, tok string) error {
	if !token.WellFormed(tok) {
		return ErrMalformedToken
	}
	if err := s.kv.Set(ctx, TokenKey, tok); err != nil {
		serr := &StorageError{Op: "write", Err: err}
		logg.Error("session", "Failed to store token", serr)
		return serr
	}
	return nil
}

// DeleteToken removes the token. Failures are logged, not returned.
func (s *Store) DeleteToken(ctx context.Context) {
	if err := s.kv.Delete(ctx, TokenKey); err != nil {
		logg.Error("session", "Failed to delete token", &StorageError{Op: "delete", Err: err})
	}
}

// CurrentUserID decodes the user id from the stored token.
func (s *Store) CurrentUserID(ctx context.Context) (string, error) {
	tok, ok := s.Token(ctx)
	if !ok {
		return "", errors.New("not logged in")
	}
	return token.UserID(tok)
}

// Validate reads the token and, once the read has completed, sends nav to
// the main view if a token is present or to the login view otherwise.
// nav is only called when the view differs from the last one a navigator
// was sent, so repeated calls do not flicker. A nil nav only reads.
// If a newer Validate started while this one was reading, this one does not
// navigate. nav must not call Validate.
func (s *Store) Validate(ctx context.Context, nav Navigator) View {
	gen := s.validations.Next()

	view := ViewLogin
	if _, ok := s.Token(ctx); ok {
		view = ViewMain
	}

	s.validations.Apply(gen, func() {
		if nav == nil || view == s.shown {
			return
		}
		s.shown = view
		nav.Navigate(view)
	})
	return view
}
