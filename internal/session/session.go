// Package session tracks who is signed in to the console. A Session is
// hydrated from the token store at startup and moves between the loading,
// unauthenticated and authenticated states.
package session

import (
	"context"
	"fmt"
	"sync"

	"erpconsole/internal/api"
	"erpconsole/internal/apiclient"
	"erpconsole/internal/logger"
	"erpconsole/internal/rbac"
	"erpconsole/internal/tokenstore"
)

type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Screen paths the session redirects to.
const (
	PathDashboard = "/"
	PathLogin     = "/login"
)

// Navigator moves the user between screens.
type Navigator interface {
	Navigate(path string)
	Current() string
}

// Authenticator is the part of the auth API the session drives.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Session struct {
	store tokenstore.Store
	auth  Authenticator
	nav   Navigator

	mu    sync.RWMutex
	state State
	user  *tokenstore.User
}

func New(store tokenstore.Store, auth Authenticator, nav Navigator) *Session {
	return &Session{store: store, auth: auth, nav: nav, state: StateLoading}
}

// Hydrate reads the store. A stored user together with an access token means
// authenticated; anything else means unauthenticated.
func (s *Session) Hydrate() State {
	user := s.store.StoredUser()
	token := s.store.AccessToken()

	s.mu.Lock()
	defer s.mu.Unlock()
	if user != nil && token != "" {
		s.state, s.user = StateAuthenticated, user
	} else {
		s.state, s.user = StateUnauthenticated, nil
	}
	return s.state
}

// Login authenticates, persists the tokens and profile, and goes to the dashboard.
func (s *Session) Login(ctx context.Context, email, password string) error {
	pair, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	profile := pair.User.Profile()
	if err := s.store.SetAuthFromTokens(pair.AccessToken, pair.RefreshToken, profile); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.mu.Lock()
	s.state, s.user = StateAuthenticated, profile
	s.mu.Unlock()

	s.nav.Navigate(PathDashboard)
	return nil
}

// Logout revokes the refresh token when possible, clears the store and goes to
// the login screen.
func (s *Session) Logout(ctx context.Context) error {
	if refresh := s.store.RefreshToken(); refresh != "" {
		if err := s.auth.Logout(ctx, refresh); err != nil {
			log := logger.WithComponent("session")
			log.Warn().Err(err).Msg("refresh token revoke failed")
		}
	}
	if err := s.store.ClearAuth(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.signedOut()
	return nil
}

// Watch ends the session when the client drops the credentials after a failed refresh.
func (s *Session) Watch(c *apiclient.Client) {
	c.OnAuthCleared(s.signedOut)
}

func (s *Session) signedOut() {
	s.mu.Lock()
	s.state, s.user = StateUnauthenticated, nil
	s.mu.Unlock()

	if s.nav.Current() != PathLogin {
		s.nav.Navigate(PathLogin)
	}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Loading() bool { return s.State() == StateLoading }

func (s *Session) Authenticated() bool { return s.State() == StateAuthenticated }

// User returns the signed-in profile, or nil.
func (s *Session) User() *tokenstore.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Role is the signed-in user's role, or viewer when nobody is signed in.
func (s *Session) Role() rbac.Role {
	if u := s.User(); u != nil {
		return rbac.ParseRole(string(u.Role))
	}
	return rbac.RoleViewer
}

// Capabilities derives the action flags for the current role.
func (s *Session) Capabilities() rbac.Capabilities {
	return rbac.For(s.Role())
}

// Can reports whether the current user holds p.
func (s *Session) Can(p rbac.Permission) bool {
	return rbac.Has(s.Role(), p)
}
