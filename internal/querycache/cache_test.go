package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCaches(t *testing.T) {
	c := New(0)
	var calls atomic.Int32
	load := func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"a"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Fetch(context.Background(), c, ListKey("orders"), load)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, v)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestErrorsAreNotCached(t *testing.T) {
	c := New(0)
	_, err := Fetch(context.Background(), c, "k", func(context.Context) (int, error) { return 0, errors.New("boom") })
	assert.Error(t, err)
	assert.Zero(t, c.Len())

	v, err := Fetch(context.Background(), c, "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestInvalidatePrefix(t *testing.T) {
	c := New(0)
	ctx := context.Background()
	for _, key := range []string{ListKey("orders"), ItemKey("orders", "1"), ListKey("invoices")} {
		_, err := Fetch(ctx, c, key, func(context.Context) (string, error) { return "v", nil })
		require.NoError(t, err)
	}

	c.Invalidate("orders/")
	_, ok := c.Peek(ListKey("orders"))
	assert.False(t, ok)
	_, ok = c.Peek(ItemKey("orders", "1"))
	assert.False(t, ok)
	_, ok = c.Peek(ListKey("invoices"))
	assert.True(t, ok)

	c.Remove(ListKey("invoices"))
	assert.Zero(t, c.Len())
}

func TestExpiry(t *testing.T) {
	c := New(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	_, err := Fetch(context.Background(), c, "k", func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, ok := c.Peek("k")
	assert.False(t, ok)
}

func TestStaleLoadDoesNotOverwriteNewerData(t *testing.T) {
	c := New(0)
	ctx := context.Background()
	key := ListKey("orders")

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	var stale string
	go func() {
		defer wg.Done()
		stale, _ = Fetch(ctx, c, key, func(context.Context) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
	}()

	<-started
	c.Invalidate("orders/")
	fresh, err := Fetch(ctx, c, key, func(context.Context) (string, error) { return "new", nil })
	require.NoError(t, err)
	assert.Equal(t, "new", fresh)

	close(release)
	wg.Wait()
	assert.Equal(t, "old", stale, "the slow caller still gets its own result")

	v, ok := c.Peek(key)
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestConcurrentFetchesShareOneLoad(t *testing.T) {
	c := New(0)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Fetch(context.Background(), c, "k", func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 1, nil
			})
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}
