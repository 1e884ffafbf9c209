package cache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athulyan/docforge-go/internal/cache"
)

func TestKeySeparatesOperations(t *testing.T) {
	content := []byte("identical bytes")
	ocrKey := cache.Key(content, "ocr")
	aiKey := cache.Key(content, "ai")
	assert.NotEqual(t, ocrKey, aiKey)

	// Same content and operation always map to the same key.
	assert.Equal(t, ocrKey, cache.Key([]byte("identical bytes"), "ocr"))
}

func TestGetOrCreate_CachesValue(t *testing.T) {
	c, err := cache.New(16)
	require.NoError(t, err)

	var calls int32
	factory := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "extracted text", nil
	}

	key := cache.Key([]byte("doc"), "ocr")
	for i := 0; i < 3; i++ {
		v, err := c.GetOrCreate(context.Background(), key, time.Minute, factory)
		require.NoError(t, err)
		assert.Equal(t, "extracted text", v)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetOrCreate_SingleFlight(t *testing.T) {
	c, err := cache.New(16)
	require.NoError(t, err)

	var calls int32
	release := make(chan struct{})
	factory := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	const waiters = 20
	var wg sync.WaitGroup
	results := make([]any, waiters)
	key := cache.Key([]byte("shared"), "ocr")
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCreate(context.Background(), key, time.Minute, factory)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Give the racers time to pile up behind the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "exactly one factory invocation expected")
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestGetOrCreate_ExpiryRecomputes(t *testing.T) {
	c, err := cache.New(16)
	require.NoError(t, err)

	var calls int32
	factory := func(ctx context.Context) (any, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	key := cache.Key([]byte("doc"), "ai")
	v, err := c.GetOrCreate(context.Background(), key, 20*time.Millisecond, factory)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	time.Sleep(40 * time.Millisecond)
	assert.False(t, c.Contains(key), "expired entry must not be reported live")

	v, err = c.GetOrCreate(context.Background(), key, time.Minute, factory)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "a fresh call after expiry recomputes")
}

func TestGetOrCreate_FailuresNotCached(t *testing.T) {
	c, err := cache.New(16)
	require.NoError(t, err)

	var calls int32
	boom := errors.New("engine unavailable")
	factory := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, boom
		}
		return "ok", nil
	}

	key := cache.Key([]byte("doc"), "ocr")
	_, err = c.GetOrCreate(context.Background(), key, time.Minute, factory)
	assert.ErrorIs(t, err, boom)
	assert.False(t, c.Contains(key))

	v, err := c.GetOrCreate(context.Background(), key, time.Minute, factory)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCache_EntryCeiling(t *testing.T) {
	c, err := cache.New(8)
	require.NoError(t, err)

	for i := 0; i < 32; i++ {
		key := cache.Key([]byte(fmt.Sprintf("doc-%d", i)), "ocr")
		_, err := c.GetOrCreate(context.Background(), key, time.Minute, func(ctx context.Context) (any, error) {
			return i, nil
		})
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, c.Len(), 8, "entry count must stay under the ceiling")
}

func TestCache_Sweep(t *testing.T) {
	c, err := cache.New(16)
	require.NoError(t, err)

	short := cache.Key([]byte("short"), "ocr")
	long := cache.Key([]byte("long"), "ocr")
	_, _ = c.GetOrCreate(context.Background(), short, 10*time.Millisecond, func(ctx context.Context) (any, error) { return 1, nil })
	_, _ = c.GetOrCreate(context.Background(), long, time.Minute, func(ctx context.Context) (any, error) { return 2, nil })

	time.Sleep(25 * time.Millisecond)
	removed := c.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Contains(long))
}

func TestGetOrCreate_CancelledContext(t *testing.T) {
	c, err := cache.New(16)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.GetOrCreate(ctx, cache.Key([]byte("doc"), "ocr"), time.Minute, func(ctx context.Context) (any, error) {
		t.Fatal("factory must not run for a cancelled context")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
