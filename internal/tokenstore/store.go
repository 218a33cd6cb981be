// Package tokenstore persists the console's session credentials: the access
// token, the refresh token and the signed-in user's profile.
package tokenstore

import (
	"context"
	"errors"
	"sync"

	"erpconsole/internal/rbac"

	"github.com/google/uuid"
)

// User is the profile cached next to the tokens.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      rbac.Role `json:"role"`
	IsActive  bool      `json:"is_active"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
}

// Store holds the session credentials. Accessors return "" or nil when a value
// is absent. Tokens are opaque; their validity is decided by the backend.
type Store interface {
	SetAuthFromTokens(access, refresh string, user *User) error
	// ClearAuth removes all three values. Clearing an empty store is not an error.
	ClearAuth() error
	AccessToken() string
	RefreshToken() string
	StoredUser() *User
}

// ErrLockNotObtained is returned by Lock when another process holds the refresh lock
// for longer than the wait allows.
var ErrLockNotObtained = errors.New("refresh lock not obtained")

// Locker is implemented by stores shared between processes. The API client holds
// the lock around a token refresh and re-reads the store once it has it.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// MemoryStore keeps credentials for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
	user    *User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SetAuthFromTokens(access, refresh string, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh, s.user = access, refresh, cloneUser(user)
	return nil
}

func (s *MemoryStore) ClearAuth() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh, s.user = "", "", nil
	return nil
}

func (s *MemoryStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *MemoryStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *MemoryStore) StoredUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.user)
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
