// Package fake implements a fake encoder.
package fake

import (
	"context"
	"sync"
	"time"

	"go.viam.com/utils"

	"github.com/viam-labs/arcodom/components/encoder"
)

var _ encoder.Encoder = (*Encoder)(nil)

// Encoder keeps track of a fake wheel position.
type Encoder struct {
	mu                      sync.Mutex
	position                float64
	speed                   float64 // ticks per minute
	updateRate              int64   // update position in start every updateRate ms
	resetErr                error
	resets                  int
	activeBackgroundWorkers sync.WaitGroup
}

// NewEncoder returns a fake encoder that advances its position every updateRateMs while started.
func NewEncoder(updateRateMs int64) *Encoder {
	return &Encoder{updateRate: updateRateMs}
}

// TicksCount returns the current position in terms of ticks.
func (e *Encoder) TicksCount(ctx context.Context, extra map[string]interface{}) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position, nil
}

// Start starts a background thread to run the encoder. It stops when cancelCtx is done; call
// Wait afterwards to join it.
func (e *Encoder) Start(cancelCtx context.Context) {
	e.mu.Lock()
	if e.updateRate == 0 {
		e.updateRate = 100
	}
	updateRate := e.updateRate
	e.mu.Unlock()

	e.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		for {
			select {
			case <-cancelCtx.Done():
				return
			default:
			}

			if !utils.SelectContextOrWait(cancelCtx, time.Duration(updateRate)*time.Millisecond) {
				return
			}

			e.mu.Lock()
			e.position += e.speed / float64(60*1000/updateRate)
			e.mu.Unlock()
		}
	}, e.activeBackgroundWorkers.Done)
}

// Wait blocks until the background worker started by Start has returned.
func (e *Encoder) Wait() {
	e.activeBackgroundWorkers.Wait()
}

// Reset sets the current position of the wheel (adjusted by a given offset)
// to be its new zero position. It fails with the error set by SetResetError.
func (e *Encoder) Reset(ctx context.Context, offset float64, extra map[string]interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resets++
	if e.resetErr != nil {
		return e.resetErr
	}
	e.position = offset
	return nil
}

// Resets returns how many times Reset has been called.
func (e *Encoder) Resets() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resets
}

// SetResetError makes every subsequent Reset fail with err. A nil err clears the failure.
func (e *Encoder) SetResetError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetErr = err
}

// SetSpeed sets the speed, in ticks per minute, of the fake wheel the encoder is measuring.
func (e *Encoder) SetSpeed(ctx context.Context, speed float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = speed
	return nil
}

// SetPosition sets the position of the encoder.
func (e *Encoder) SetPosition(ctx context.Context, position float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = position
	return nil
}

// AddTicks advances the position of the encoder by ticks.
func (e *Encoder) AddTicks(ticks float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position += ticks
}
