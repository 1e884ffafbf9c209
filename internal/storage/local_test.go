package storage_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athulyan/docforge-go/internal/retryio"
	"github.com/athulyan/docforge-go/internal/storage"
)

func newLocal(t *testing.T) *storage.Local {
	t.Helper()
	return storage.NewLocal(t.TempDir(), retryio.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond})
}

func TestLocal_SaveExistsDelete(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	url, err := l.Save(ctx, "jobs/j1/page_001.jpg", []byte("data"))
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	ok, err := l.Exists(ctx, "jobs/j1/page_001.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, l.Delete(ctx, "jobs/j1/page_001.jpg"))
	ok, err = l.Exists(ctx, "jobs/j1/page_001.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing file is not an error.
	assert.NoError(t, l.Delete(ctx, "jobs/j1/page_001.jpg"))
}

func TestLocal_List(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	_, err := l.Save(ctx, "jobs/j1/a.jpg", []byte("a"))
	require.NoError(t, err)
	_, err = l.Save(ctx, "jobs/j1/b.jpg", []byte("b"))
	require.NoError(t, err)
	_, err = l.Save(ctx, "jobs/j2/c.jpg", []byte("c"))
	require.NoError(t, err)

	paths, err := l.List(ctx, "jobs/j1")
	require.NoError(t, err)
	sort.Strings(paths)
	assert.Equal(t, []string{"jobs/j1/a.jpg", "jobs/j1/b.jpg"}, paths)
}

func TestLocal_RejectsTraversal(t *testing.T) {
	l := newLocal(t)
	_, err := l.Save(context.Background(), "../outside.jpg", []byte("x"))
	assert.Error(t, err)
}
