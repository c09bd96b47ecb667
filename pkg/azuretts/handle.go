package azuretts

import (
	"context"
	"sync/atomic"
)

// Handle represents the eventual completion of one speak request. It resolves
// exactly once, to success or to an error; whichever path resolves first wins
// and later attempts are no-ops.
//
// A stopped session's handle resolves with success once its remaining audio
// drains. A handle superseded by a later SpeakAsync call is never resolved.
type Handle struct {
	resolved atomic.Bool
	err      error
	done     chan struct{}
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// resolve records the outcome. The first caller wins.
func (h *Handle) resolve(err error) {
	if h.resolved.CompareAndSwap(false, true) {
		h.err = err
		close(h.done)
	}
}

// Done returns a channel closed when the request completes or fails.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the request's outcome. It is only valid after Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the request completes, fails, or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
