package dialqueue

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func TestAbortComposerFiresOnTimeout(t *testing.T) {
	mock := clock.NewMock()
	ac := newAbortComposer(context.Background(), nil, time.Second, mock)
	defer ac.Clear()

	select {
	case <-ac.Context().Done():
		t.Fatal("context fired before the timeout elapsed")
	default:
	}

	mock.Add(time.Second)

	select {
	case <-ac.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the composite context to cancel")
	}
}

func TestAbortComposerFiresOnShutdown(t *testing.T) {
	mock := clock.NewMock()
	shutdownCtx, shutdown := context.WithCancel(context.Background())
	ac := newAbortComposer(shutdownCtx, nil, time.Minute, mock)
	defer ac.Clear()

	shutdown()

	select {
	case <-ac.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for shutdown to propagate")
	}
}

func TestAbortComposerFiresOnUserContext(t *testing.T) {
	mock := clock.NewMock()
	userCtx, userCancel := context.WithCancel(context.Background())
	ac := newAbortComposer(context.Background(), userCtx, time.Minute, mock)
	defer ac.Clear()

	userCancel()

	select {
	case <-ac.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for user cancellation to propagate")
	}
}

func TestAbortComposerClearIsIdempotent(t *testing.T) {
	mock := clock.NewMock()
	ac := newAbortComposer(context.Background(), nil, time.Minute, mock)
	ac.Clear()
	ac.Clear() // must not panic
}
