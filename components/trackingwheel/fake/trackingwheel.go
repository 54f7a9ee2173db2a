// Package fake implements a fake tracking wheel.
package fake

import (
	"context"
	"sync"

	"github.com/viam-labs/arcodom/components/trackingwheel"
)

var _ trackingwheel.TrackingWheel = (*TrackingWheel)(nil)

// TrackingWheel is a tracking wheel whose travel is set directly with Roll.
type TrackingWheel struct {
	name   string
	offset float64

	mu       sync.Mutex
	pending  float64
	resets   int
	reads    int
	resetErr error
	readErr  error
}

// NewTrackingWheel returns a fake wheel mounted at offset.
func NewTrackingWheel(name string, offset float64) *TrackingWheel {
	return &TrackingWheel{name: name, offset: offset}
}

// Name returns the name of the wheel.
func (w *TrackingWheel) Name() string {
	return w.name
}

// Offset returns the mounting offset of the wheel.
func (w *TrackingWheel) Offset() float64 {
	return w.offset
}

// DistanceDelta returns the distance rolled since the last consuming read.
func (w *TrackingWheel) DistanceDelta(ctx context.Context, update bool) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reads++
	if w.readErr != nil {
		return 0, w.readErr
	}
	d := w.pending
	if update {
		w.pending = 0
	}
	return d, nil
}

// Reset zeroes the wheel, or fails with the error set by SetResetError.
func (w *TrackingWheel) Reset(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resets++
	if w.resetErr != nil {
		return w.resetErr
	}
	w.pending = 0
	return nil
}

// Roll adds distance to what the next read reports.
func (w *TrackingWheel) Roll(distance float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending += distance
}

// SetResetError makes subsequent resets fail with err.
func (w *TrackingWheel) SetResetError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetErr = err
}

// SetReadError makes subsequent reads fail with err.
func (w *TrackingWheel) SetReadError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.readErr = err
}

// Resets returns how many times Reset was called.
func (w *TrackingWheel) Resets() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resets
}

// Reads returns how many times DistanceDelta was called.
func (w *TrackingWheel) Reads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reads
}
