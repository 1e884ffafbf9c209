package governor_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athulyan/docforge-go/internal/governor"
)

func TestRun_NeverExceedsPermitCount(t *testing.T) {
	const k = 2
	g := governor.New(k)

	var active, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 2*k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.Run(context.Background(), func(ctx context.Context) error {
				cur := atomic.AddInt64(&active, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if cur <= p || atomic.CompareAndSwapInt64(&peak, p, cur) {
						break
					}
				}
				time.Sleep(30 * time.Millisecond)
				atomic.AddInt64(&active, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(k))
	assert.Equal(t, 0, g.Active())
}

func TestRun_ReleasesPermitOnError(t *testing.T) {
	g := governor.New(1)
	boom := errors.New("task failed")

	err := g.Run(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	// The permit must be reusable immediately.
	done := make(chan struct{})
	go func() {
		_ = g.Run(context.Background(), func(ctx context.Context) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("permit was not released after task error")
	}
}

func TestRun_CancelledWhileWaiting(t *testing.T) {
	g := governor.New(1)

	hold := make(chan struct{})
	go func() {
		_ = g.Run(context.Background(), func(ctx context.Context) error {
			<-hold
			return nil
		})
	}()

	// Wait until the permit is definitely taken.
	require.Eventually(t, func() bool { return g.Active() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Run(ctx, func(ctx context.Context) error {
		t.Fatal("task must not run when the permit wait is cancelled")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	close(hold)
}

func TestRunBatch_CollectsPerItemErrors(t *testing.T) {
	g := governor.New(2)
	boom := errors.New("bad file")

	errs := g.RunBatch(context.Background(), 5, func(ctx context.Context, i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})

	require.Len(t, errs, 5)
	for i, err := range errs {
		if i == 3 {
			assert.ErrorIs(t, err, boom)
		} else {
			assert.NoError(t, err, "item %d", i)
		}
	}
}

func TestRunBatch_BoundsConcurrency(t *testing.T) {
	const k = 2
	g := governor.New(k)

	var active, peak int64
	errs := g.RunBatch(context.Background(), 12, func(ctx context.Context, i int) error {
		cur := atomic.AddInt64(&active, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if cur <= p || atomic.CompareAndSwapInt64(&peak, p, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return nil
	})

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(k))
}

func TestRunBatch_CancelledMidway(t *testing.T) {
	g := governor.New(1)
	ctx, cancel := context.WithCancel(context.Background())

	var started int32
	errs := g.RunBatch(ctx, 8, func(ctx context.Context, i int) error {
		if atomic.AddInt32(&started, 1) == 1 {
			cancel()
		}
		return nil
	})

	var failed int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
			failed++
		}
	}
	assert.Greater(t, failed, 0, "items after cancellation must report the cancellation")
}
