// Package fake implements a fake gyro whose calibration latency is driven by a clock.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/viam-labs/arcodom/components/gyro"
)

// NeverCalibrates is a calibration time for a gyro that stays calibrating forever.
const NeverCalibrates = time.Duration(-1)

var _ gyro.Gyro = (*Gyro)(nil)

// Gyro is a fake gyro. Rotation is injected with Rotate and handed out by RotationDelta.
type Gyro struct {
	name  string
	clock clock.Clock

	mu               sync.Mutex
	calibrationTime  time.Duration
	failedStarts     int
	calibrateCalls   int
	calibrating      bool
	calibrated       bool
	calibrationStart time.Time
	pending          float64
	readErr          error
}

// NewGyro returns a fake gyro that reports calibrated calibrationTime after a successful
// Calibrate call, as measured by clk. Use NeverCalibrates for a gyro that never finishes.
func NewGyro(name string, clk clock.Clock, calibrationTime time.Duration) *Gyro {
	if clk == nil {
		clk = clock.New()
	}
	return &Gyro{name: name, clock: clk, calibrationTime: calibrationTime}
}

// NewCalibratedGyro returns a fake gyro that is already calibrated.
func NewCalibratedGyro(name string) *Gyro {
	g := NewGyro(name, nil, 0)
	g.calibrated = true
	return g
}

// Name returns the name of the gyro.
func (g *Gyro) Name() string {
	return g.name
}

// FailStarts makes the next n calls to Calibrate fail without starting calibration.
func (g *Gyro) FailStarts(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failedStarts = n
}

// Calibrate starts calibration unless a failed start was requested.
func (g *Gyro) Calibrate(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calibrateCalls++
	if g.failedStarts > 0 {
		g.failedStarts--
		return errors.Errorf("gyro %q failed to start calibrating", g.name)
	}
	g.calibrated = false
	g.calibrating = true
	g.calibrationStart = g.clock.Now()
	return nil
}

// CalibrateCalls returns how many times Calibrate was called.
func (g *Gyro) CalibrateCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calibrateCalls
}

func (g *Gyro) advance() {
	if !g.calibrating || g.calibrationTime < 0 {
		return
	}
	if g.clock.Since(g.calibrationStart) >= g.calibrationTime {
		g.calibrating = false
		g.calibrated = true
	}
}

// IsCalibrating reports whether calibration has started but not finished.
func (g *Gyro) IsCalibrating() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.advance()
	return g.calibrating
}

// IsCalibrated reports whether calibration has finished.
func (g *Gyro) IsCalibrated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.advance()
	return g.calibrated
}

// Rotate adds a counter-clockwise rotation in radians to what the next read reports.
func (g *Gyro) Rotate(radians float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending += radians
}

// SetReadError makes subsequent reads fail with err.
func (g *Gyro) SetReadError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.readErr = err
}

// RotationDelta returns the rotation injected since the last call.
func (g *Gyro) RotationDelta(ctx context.Context) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.readErr != nil {
		return 0, g.readErr
	}
	d := g.pending
	g.pending = 0
	return d, nil
}
