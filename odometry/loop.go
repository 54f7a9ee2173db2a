package odometry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Start runs Update every interval on a single background goroutine until ctx is done or Close
// is called. Update errors are logged by Update itself.
func (e *Engine) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.Errorf("update interval must be positive, got %v", interval)
	}

	e.loopMu.Lock()
	defer e.loopMu.Unlock()
	if e.cancelLoop != nil {
		return ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	e.cancelLoop = cancel
	ticker := e.clock.Ticker(interval)

	e.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
			}
			_, _ = e.Update(loopCtx)
		}
	}, e.activeBackgroundWorkers.Done)
	return nil
}

// Close stops the update loop, if running, and waits for it to exit or for ctx to be done. An
// Update blocked on a sensor that ignores cancellation keeps running after Close returns an error.
func (e *Engine) Close(ctx context.Context) error {
	e.loopMu.Lock()
	cancel := e.cancelLoop
	e.cancelLoop = nil
	e.loopMu.Unlock()

	if cancel != nil {
		cancel()
	}

	stopped := make(chan struct{})
	utils.PanicCapturingGo(func() {
		e.activeBackgroundWorkers.Wait()
		close(stopped)
	})
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for odometry update loop to stop")
	}
}
