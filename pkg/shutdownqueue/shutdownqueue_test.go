package shutdownqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// resetQueue clears the global queue state between tests.
func resetQueue(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		q.mu.Lock()

		q.tasks = nil
		q.closed = false

		q.mu.Unlock()
	})
}

//nolint:paralleltest
func TestAddNilTaskIsNoop(t *testing.T) {
	resetQueue(t)

	Add(nil)

	require.NoError(t, Shutdown(context.Background()))
}

//nolint:paralleltest
func TestLIFOOrder(t *testing.T) {
	resetQueue(t)

	var (
		orderMu sync.Mutex
		order   []int
	)

	makeTask := func(n int) Task {
		return func(ctx context.Context) error {
			orderMu.Lock()
			order = append(order, n)
			orderMu.Unlock()

			return nil
		}
	}

	for i := 1; i <= 3; i++ {
		Add(makeTask(i))
	}

	require.NoError(t, Shutdown(context.Background()))
	require.Equal(t, []int{3, 2, 1}, order)
}

//nolint:paralleltest
func TestPanicRecoveredAndDrainContinues(t *testing.T) {
	resetQueue(t)

	var ranAfterPanic atomic.Bool

	Add(func(ctx context.Context) error { return nil })
	Add(func(ctx context.Context) error { panic("boom") })
	Add(func(ctx context.Context) error {
		ranAfterPanic.Store(true)

		return nil
	})

	err := Shutdown(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "panic in shutdown task: boom")
	require.True(t, ranAfterPanic.Load(), "tasks after the panicking one must still run")
}

//nolint:paralleltest
func TestCancelStopsDrainEarly(t *testing.T) {
	resetQueue(t)

	errA := errors.New("taskA")

	var ranB atomic.Bool

	gateReady := make(chan struct{})

	Add(func(ctx context.Context) error { return errA })
	Add(func(ctx context.Context) error {
		ranB.Store(true)

		return nil
	})
	Add(func(ctx context.Context) error { // LIFO: runs first
		close(gateReady)
		<-ctx.Done()

		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() {
		errCh <- Shutdown(ctx)
	}()

	<-gateReady
	cancel()

	err := <-errCh
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, ranB.Load(), "tasks after cancellation must not run")
	require.NotErrorIs(t, err, errA)
}

//nolint:paralleltest
func TestShutdownIdempotent(t *testing.T) {
	resetQueue(t)

	var count atomic.Int32

	Add(func(ctx context.Context) error {
		count.Add(1)

		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, Shutdown(ctx))
	require.NoError(t, Shutdown(ctx))
	require.EqualValues(t, 1, count.Load())
}

//nolint:paralleltest
func TestAddDuringShutdownIsNoop(t *testing.T) {
	resetQueue(t)

	started := make(chan struct{})
	unblock := make(chan struct{})

	Add(func(ctx context.Context) error { return nil })
	Add(func(ctx context.Context) error {
		close(started)
		<-unblock

		return nil
	})

	done := make(chan struct{})

	go func() {
		_ = Shutdown(context.Background())

		close(done)
	}()

	<-started

	var ran atomic.Bool

	Add(func(ctx context.Context) error {
		ran.Store(true)

		return nil
	})

	close(unblock)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not finish")
	}

	require.False(t, ran.Load(), "task added after shutdown start must not run")
}

//nolint:paralleltest
func TestTaskErrorsJoined(t *testing.T) {
	resetQueue(t)

	err1 := errors.New("alpha")
	err2 := errors.New("beta")

	Add(func(ctx context.Context) error { return err1 })
	Add(func(ctx context.Context) error { return err2 })

	err := Shutdown(context.Background())
	require.ErrorIs(t, err, err1)
	require.ErrorIs(t, err, err2)
}
