package cache

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*TTLCache[string, int], *time.Time) {
	t.Helper()
	c := New[string, int](ttl, time.Hour)
	t.Cleanup(c.Close)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestTTLCache_SetGetExpire(t *testing.T) {
	c, now := newTestCache(t, time.Minute)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	*now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "expired entry stays until the sweep")

	c.evictExpired()
	assert.Zero(t, c.Len())
}

func TestTTLCache_GetOrLoad(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrLoad("k", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.GetOrLoad("k", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)

	_, err = c.GetOrLoad("bad", func() (int, error) { return 0, errors.New("db down") })
	assert.Error(t, err)
	_, ok := c.Get("bad")
	assert.False(t, ok, "errors are not cached")
}

func TestTTLCache_DeleteVariants(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	c.Set("rating:1", 1)
	c.Set("rating:2", 2)
	c.Set("stats", 3)

	c.Delete("stats")
	_, ok := c.Get("stats")
	assert.False(t, ok)

	c.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, "rating:") })
	assert.Zero(t, c.Len())

	c.Set("x", 1)
	c.Clear()
	assert.Zero(t, c.Len())
}

func TestTTLCache_CloseTwice(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	assert.NotPanics(t, func() {
		c.Close()
		c.Close()
	})
}

func TestTTLCache_GetOrLoadSharesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func() (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad("k", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 7, v)
	}
}

func TestTTLCache_LoadOverlappingDeleteIsNotStored(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int)
	go func() {
		v, err := c.GetOrLoad("k", func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		assert.NoError(t, err)
		done <- v
	}()

	<-started
	c.Delete("k")

	// A caller after the invalidation does not join the stale load.
	v, err := c.GetOrLoad("k", func() (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	close(release)
	assert.Equal(t, 1, <-done)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got, "the stale load must not overwrite the fresh value")
}
