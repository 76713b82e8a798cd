package orchestration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const handleDrainTimeout = 500 * time.Millisecond

// capabilityHandle is the in-flight token of a single step. It belongs to
// the turn it was created for and is never reused.
type capabilityHandle struct {
	id     uint64
	turnID uuid.UUID
	step   InteractionState

	ctx    context.Context
	cancel context.CancelFunc

	finishOnce sync.Once
	done       chan struct{}
}

func newCapabilityHandle(id uint64, turnID uuid.UUID, step InteractionState) *capabilityHandle {
	ctx, cancel := context.WithCancel(context.Background())
	return &capabilityHandle{
		id:     id,
		turnID: turnID,
		step:   step,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Cancel is idempotent.
func (h *capabilityHandle) Cancel() {
	if h != nil {
		h.cancel()
	}
}

func (h *capabilityHandle) finish() {
	h.finishOnce.Do(func() { close(h.done) })
}

// awaitPrevious blocks until prev has returned from its provider call, so
// two steps of one turn never run side by side. A provider that ignores
// cancellation is given up on after handleDrainTimeout.
func (h *capabilityHandle) awaitPrevious(prev *capabilityHandle) {
	if prev == nil {
		return
	}

	timer := time.NewTimer(handleDrainTimeout)
	defer timer.Stop()

	select {
	case <-prev.done:
	case <-h.ctx.Done():
	case <-timer.C:
		logger.Warn("previous step did not return after cancellation",
			"step", prev.step.String(),
			"handle", prev.id,
		)
	}
}

type callResult[T any] struct {
	value T
	err   error
}

// callUntilDone runs call on its own goroutine and returns its result, or
// ctx.Err() once ctx is done. After ctx is done the call gets up to grace to
// return on its own; past that it is abandoned.
func callUntilDone[T any](ctx context.Context, grace time.Duration, call func() (T, error)) (T, error) {
	result := make(chan callResult[T], 1)
	go func() {
		value, err := call()
		result <- callResult[T]{value: value, err: err}
	}()

	select {
	case r := <-result:
		return r.value, r.err
	case <-ctx.Done():
	}

	if grace > 0 {
		timer := time.NewTimer(grace)
		defer timer.Stop()

		select {
		case r := <-result:
			return r.value, r.err
		case <-timer.C:
			logger.Warn("provider call did not return after cancellation", "error", ctx.Err())
		}
	}

	var zero T
	return zero, ctx.Err()
}
