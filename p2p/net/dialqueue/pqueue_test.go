package dialqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestExecutorRunsSingleJob(t *testing.T) {
	e := NewExecutor[int](1)
	h, err := e.Add(context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	}, 0)
	require.NoError(t, err)

	v, err := h.Wait()
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestExecutorBoundsConcurrency(t *testing.T) {
	const concurrency = 2
	e := NewExecutor[int](concurrency)

	started := make(chan struct{}, 10)
	release := make(chan struct{})
	var handles []*Handle[int]

	for i := 0; i < 5; i++ {
		h, err := e.Add(context.Background(), func(ctx context.Context) (int, error) {
			started <- struct{}{}
			<-release
			return 0, nil
		}, 0)
		require.NoError(t, err)
		handles = append(handles, h)
	}

	// Only `concurrency` jobs should have started.
	for i := 0; i < concurrency; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for a job to start")
		}
	}
	select {
	case <-started:
		t.Fatal("more jobs started than the concurrency bound allows")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	for _, h := range handles {
		_, err := h.Wait()
		require.NoError(t, err)
	}
}

func TestExecutorPriorityOrdering(t *testing.T) {
	e := NewExecutor[int](1)

	block := make(chan struct{})
	firstStarted := make(chan struct{})
	_, err := e.Add(context.Background(), func(ctx context.Context) (int, error) {
		close(firstStarted)
		<-block
		return 0, nil
	}, 0)
	require.NoError(t, err)
	<-firstStarted

	var order []int
	done := make(chan struct{})
	for _, p := range []int{1, 5, 3} {
		p := p
		_, err := e.Add(context.Background(), func(ctx context.Context) (int, error) {
			order = append(order, p)
			if len(order) == 3 {
				close(done)
			}
			return p, nil
		}, p)
		require.NoError(t, err)
	}

	close(block)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for queued jobs to run")
	}
	require.Equal(t, []int{5, 3, 1}, order)
}

func TestHandleWaitCancelDoesNotAffectOtherWaiters(t *testing.T) {
	e := NewExecutor[int](1)

	started := make(chan struct{})
	release := make(chan struct{})
	h1, err := e.Add(context.Background(), func(ctx context.Context) (int, error) {
		close(started)
		<-release
		return 1, nil
	}, 0)
	require.NoError(t, err)
	<-started

	cancelCtx, cancel := context.WithCancel(context.Background())
	h2 := e.JoinJob(h1.Job(), cancelCtx)
	h3 := e.JoinJob(h1.Job(), context.Background())

	cancel()
	_, err = h2.Wait()
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	v, err := h3.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	_, err = h1.Wait()
	require.NoError(t, err)
}

func TestExecutorAbortFinishesPendingWithErrAborted(t *testing.T) {
	e := NewExecutor[int](1)

	block := make(chan struct{})
	_, err := e.Add(context.Background(), func(ctx context.Context) (int, error) {
		<-block
		return 0, nil
	}, 0)
	require.NoError(t, err)

	h, err := e.Add(context.Background(), func(ctx context.Context) (int, error) {
		return 1, nil
	}, 0)
	require.NoError(t, err)

	e.Abort()
	close(block)

	_, err = h.Wait()
	require.True(t, errors.Is(err, ErrAborted))

	_, err = e.Add(context.Background(), func(ctx context.Context) (int, error) { return 0, nil }, 0)
	require.ErrorIs(t, err, ErrExecutorClosed)
}
