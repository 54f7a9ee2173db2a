package odometry

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/viam-labs/arcodom/components/gyro"
	"github.com/viam-labs/arcodom/components/trackingwheel"
)

// readings holds travel and rotation consumed from the sensors but not yet folded into the pose.
// A tick that fails keeps what it read, and the next successful tick accounts for all of it.
type readings struct {
	travel   map[trackingwheel.TrackingWheel]float64
	rotation map[gyro.Gyro]float64
}

func newReadings(sensors *Sensors) readings {
	return readings{
		travel:   make(map[trackingwheel.TrackingWheel]float64, len(sensors.Verticals)+len(sensors.Horizontals)),
		rotation: make(map[gyro.Gyro]float64, len(sensors.Gyros)),
	}
}

func (r *readings) clear() {
	clear(r.travel)
	clear(r.rotation)
}

// readSensors consumes one reading from every sensor into the pending readings. Every sensor is
// read even when an earlier one fails, so no sensor falls a tick behind the others.
func (e *Engine) readSensors(ctx context.Context) error {
	var errs error
	for _, w := range e.sensors.Verticals {
		errs = multierr.Append(errs, e.readWheel(ctx, w))
	}
	for _, w := range e.sensors.Horizontals {
		errs = multierr.Append(errs, e.readWheel(ctx, w))
	}
	for _, g := range e.sensors.Gyros {
		d, err := g.RotationDelta(ctx)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "reading gyro %q", g.Name()))
			continue
		}
		e.pending.rotation[g] += d
	}
	return errs
}

func (e *Engine) readWheel(ctx context.Context, w trackingwheel.TrackingWheel) error {
	d, err := w.DistanceDelta(ctx, true)
	if err != nil {
		return errors.Wrapf(err, "reading tracking wheel %q", w.Name())
	}
	e.pending.travel[w] += d
	return nil
}
