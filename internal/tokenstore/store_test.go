package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"erpconsole/internal/logger"
	"erpconsole/internal/rbac"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test")
}

func TestStores(t *testing.T) {
	logger.Discard()
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))
		},
		"redis": func(t *testing.T) Store { return newRedisStore(t) },
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("empty store reads as absent", func(t *testing.T) {
				s := open(t)
				assert.Empty(t, s.AccessToken())
				assert.Empty(t, s.RefreshToken())
				assert.Nil(t, s.StoredUser())
			})

			t.Run("set then read", func(t *testing.T) {
				s := open(t)
				u := &User{ID: uuid.New(), Email: "a@example.com", Role: rbac.RoleManager, IsActive: true}
				require.NoError(t, s.SetAuthFromTokens("access-1", "refresh-1", u))

				assert.Equal(t, "access-1", s.AccessToken())
				assert.Equal(t, "refresh-1", s.RefreshToken())
				assert.Equal(t, u, s.StoredUser())
			})

			t.Run("tokens are not validated", func(t *testing.T) {
				s := open(t)
				require.NoError(t, s.SetAuthFromTokens("not a jwt", "x", &User{}))
				assert.Equal(t, "not a jwt", s.AccessToken())
			})

			t.Run("clear is idempotent", func(t *testing.T) {
				s := open(t)
				require.NoError(t, s.SetAuthFromTokens("a", "r", &User{Email: "a@example.com"}))
				require.NoError(t, s.ClearAuth())
				require.NoError(t, s.ClearAuth())
				assert.Empty(t, s.AccessToken())
				assert.Empty(t, s.RefreshToken())
				assert.Nil(t, s.StoredUser())
			})
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.SetAuthFromTokens("a", "r", &User{Email: "a@example.com"}))
	s.StoredUser().Email = "changed@example.com"
	assert.Equal(t, "a@example.com", s.StoredUser().Email)
}

func TestFileStorePermissionsAndPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path)
	require.NoError(t, s.SetAuthFromTokens("a", "r", &User{Email: "a@example.com"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened := NewFileStore(path)
	assert.Equal(t, "a", reopened.AccessToken())
	assert.Equal(t, "a@example.com", reopened.StoredUser().Email)
}

func TestFileStoreCorruptFileReadsAsAbsent(t *testing.T) {
	logger.Discard()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewFileStore(path)
	assert.Empty(t, s.AccessToken())
	assert.Nil(t, s.StoredUser())
}

func TestRedisStoreSharesSession(t *testing.T) {
	mr := miniredis.RunT(t)
	c1 := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c2 := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer c1.Close()
	defer c2.Close()

	a := NewRedisStore(c1, "erp")
	b := NewRedisStore(c2, "erp")
	require.NoError(t, a.SetAuthFromTokens("shared", "r", &User{Email: "a@example.com"}))
	assert.Equal(t, "shared", b.AccessToken())
	assert.True(t, mr.Exists("erp:access_token"))
	assert.True(t, mr.Exists("erp:refresh_token"))
	assert.True(t, mr.Exists("erp:user"))
}

func TestRedisStoreLock(t *testing.T) {
	s := newRedisStore(t)
	unlock, err := s.Lock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = s.Lock(ctx)
	assert.Error(t, err)

	unlock()
	unlock2, err := s.Lock(context.Background())
	require.NoError(t, err)
	unlock2()
}

func TestFileStoreLockSharedBetweenInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	a := NewFileStore(path)
	b := NewFileStore(path)
	var _ Locker = a

	unlock, err := a.Lock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = b.Lock(ctx)
	assert.ErrorIs(t, err, ErrLockNotObtained)

	unlock()
	unlock2, err := b.Lock(context.Background())
	require.NoError(t, err)
	unlock2()
}
