package odometry

import (
	"context"

	"github.com/viam-labs/arcodom/components/gyro"
	"github.com/viam-labs/arcodom/components/trackingwheel"
)

// Calibrate resets every tracking wheel and, if calibrateGyros is set, calibrates the gyros,
// removing any sensor that fails from the Sensors set. Readings pending from failed updates are
// discarded. It blocks for up to the calibration timeout while gyros settle. Failures are logged
// and never fatal. Calibrating an already calibrated, unchanged set removes nothing.
func (e *Engine) Calibrate(ctx context.Context, calibrateGyros bool) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.sensors.Verticals = e.calibrateWheels(ctx, "vertical", e.sensors.Verticals)
	e.sensors.Horizontals = e.calibrateWheels(ctx, "horizontal", e.sensors.Horizontals)
	if calibrateGyros {
		e.sensors.Gyros = e.calibrateGyros(ctx, e.sensors.Gyros)
	}
	e.pending.clear()
	if len(e.sensors.Verticals) == 0 {
		e.logger.Warn("no vertical tracking wheels, assuming forward displacement is 0")
	}

	e.mu.Lock()
	e.state = StateActive
	e.mu.Unlock()
	e.logger.Infow("odometry calibrated",
		"vertical_wheels", len(e.sensors.Verticals),
		"horizontal_wheels", len(e.sensors.Horizontals),
		"gyros", len(e.sensors.Gyros))
}

// calibrateWheels returns a new slice holding, in order, the wheels that reset successfully.
func (e *Engine) calibrateWheels(
	ctx context.Context, axis string, wheels []trackingwheel.TrackingWheel,
) []trackingwheel.TrackingWheel {
	survivors := make([]trackingwheel.TrackingWheel, 0, len(wheels))
	for _, w := range wheels {
		if err := w.Reset(ctx); err != nil {
			e.logger.Warnw("tracking wheel failed calibration, removing",
				"axis", axis, "offset", w.Offset(), "name", w.Name(), "error", err)
			continue
		}
		survivors = append(survivors, w)
	}
	return survivors
}

// calibrateGyros triggers calibration on every gyro and polls until the deadline, re-triggering
// gyros that are neither calibrating nor calibrated. Gyros still not calibrated at the deadline
// are dropped. A done ctx ends polling early.
func (e *Engine) calibrateGyros(ctx context.Context, gyros []gyro.Gyro) []gyro.Gyro {
	for _, g := range gyros {
		e.startGyroCalibration(ctx, g)
	}

	deadline := e.clock.Now().Add(e.opts.CalibrationTimeout)
poll:
	for e.clock.Now().Before(deadline) {
		for _, g := range gyros {
			if !g.IsCalibrating() && !g.IsCalibrated() {
				e.startGyroCalibration(ctx, g)
			}
		}
		select {
		case <-ctx.Done():
			e.logger.Warnw("gyro calibration interrupted", "error", ctx.Err())
			break poll
		case <-e.clock.After(e.opts.CalibrationInterval):
		}
	}

	survivors := make([]gyro.Gyro, 0, len(gyros))
	for _, g := range gyros {
		if !g.IsCalibrated() {
			e.logger.Warnw("gyro failed to calibrate, removing", "port", g.Name())
			continue
		}
		survivors = append(survivors, g)
	}
	return survivors
}

func (e *Engine) startGyroCalibration(ctx context.Context, g gyro.Gyro) {
	if err := g.Calibrate(ctx); err != nil {
		e.logger.Debugw("gyro calibration did not start", "port", g.Name(), "error", err)
	}
}
