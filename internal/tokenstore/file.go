package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"erpconsole/internal/logger"

	"github.com/gofrs/flock"
)

const (
	fileLockWait  = 10 * time.Second
	fileLockRetry = 50 * time.Millisecond
)

type fileState struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// FileStore keeps credentials in a JSON file readable only by the owner, so a
// session survives between console invocations. A missing or unreadable file
// reads as an empty session. Processes sharing the file coordinate refreshes
// through Lock.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) SetAuthFromTokens(access, refresh string, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(fileState{AccessToken: access, RefreshToken: refresh, User: user})
}

func (s *FileStore) ClearAuth() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear session file: %w", err)
	}
	return nil
}

func (s *FileStore) AccessToken() string {
	return s.read().AccessToken
}

func (s *FileStore) RefreshToken() string {
	return s.read().RefreshToken
}

func (s *FileStore) StoredUser() *User {
	return s.read().User
}

// Lock takes an advisory lock on the ".lock" file next to the session file,
// waiting at most fileLockWait.
func (s *FileStore) Lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	fl := flock.New(s.path + ".lock")

	waitCtx, cancel := context.WithTimeout(ctx, fileLockWait)
	defer cancel()
	locked, err := fl.TryLockContext(waitCtx, fileLockRetry)
	if err != nil && waitCtx.Err() == nil {
		return nil, fmt.Errorf("obtain refresh lock: %w", err)
	}
	if !locked {
		return nil, ErrLockNotObtained
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			log := logger.WithComponent("tokenstore")
			log.Warn().Err(err).Str("path", fl.Path()).Msg("release refresh lock")
		}
	}, nil
}

func (s *FileStore) read() fileState {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st fileState
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log := logger.WithComponent("tokenstore")
			log.Warn().Err(err).Str("path", s.path).Msg("session file unreadable")
		}
		return st
	}
	if err := json.Unmarshal(data, &st); err != nil {
		log := logger.WithComponent("tokenstore")
		log.Warn().Err(err).Str("path", s.path).Msg("session file corrupt")
		return fileState{}
	}
	return st
}

func (s *FileStore) write(st fileState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	// A per-writer temp file keeps concurrent processes from interleaving.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
