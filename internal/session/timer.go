package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultTickInterval is the real-time length of one clock second.
const DefaultTickInterval = time.Second

// TickEvent is emitted by a Timer after each countdown step.
type TickEvent struct {
	AttemptID string
	Remaining int
	Complete  bool
	Err       error
}

// Timer drives an Engine's countdown at a fixed interval. It is a scoped
// resource: the owner must call Stop when the attempt's view goes away.
// The timer stops on its own once the attempt completes.
type Timer struct {
	cancel context.CancelFunc
	events chan TickEvent
	done   chan struct{}
	once   sync.Once
}

// StartTimer begins counting down e. The returned timer must be stopped.
func StartTimer(ctx context.Context, e *Engine, interval time.Duration) *Timer {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Timer{
		cancel: cancel,
		events: make(chan TickEvent, 1),
		done:   make(chan struct{}),
	}
	attemptID := e.AttemptID()

	go func() {
		defer close(t.done)
		defer close(t.events)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			complete, err := e.countdown(ctx, attemptID)
			if errors.Is(err, errStaleAttempt) {
				return
			}
			ev := TickEvent{
				AttemptID: attemptID,
				Remaining: e.TimeRemaining(),
				Complete:  complete,
				Err:       err,
			}
			// Drop the event if nobody is draining; the engine holds the state.
			select {
			case t.events <- ev:
			default:
			}
			if complete || err != nil {
				return
			}
		}
	}()
	return t
}

// Events delivers one event per countdown step. It is closed when the timer ends.
func (t *Timer) Events() <-chan TickEvent {
	return t.events
}

// Done is closed once the timer goroutine has exited.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}

// Stop cancels the timer and waits for it to exit. It is safe to call more
// than once and after the timer has ended on its own.
func (t *Timer) Stop() {
	t.once.Do(t.cancel)
	<-t.done
}
