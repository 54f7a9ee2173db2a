package odometry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/viam-labs/arcodom/components/trackingwheel"
)

// estimateHeadingDelta returns this tick's heading change in radians, counter-clockwise
// positive, from the best source available in the pending readings.
//
// Only the first two wheels of an axis contribute; further wheels on that axis are used for
// displacement only.
func (e *Engine) estimateHeadingDelta() (float64, error) {
	s := e.sensors
	switch {
	case len(s.Gyros) > 0:
		// every gyro is averaged, not just a pair
		e.gyroDeltas = e.gyroDeltas[:0]
		for _, g := range s.Gyros {
			e.gyroDeltas = append(e.gyroDeltas, e.pending.rotation[g])
		}
		return stat.Mean(e.gyroDeltas, nil), nil
	case len(s.Horizontals) > 1:
		return e.pending.wheelPairHeadingDelta(s.Horizontals[0], s.Horizontals[1]), nil
	case len(s.Verticals) > 1:
		return e.pending.wheelPairHeadingDelta(s.Verticals[0], s.Verticals[1]), nil
	default:
		return 0, ErrInsufficientHeadingSensors
	}
}

func (r *readings) wheelPairHeadingDelta(a, b trackingwheel.TrackingWheel) float64 {
	return (r.travel[a] - r.travel[b]) / (a.Offset() - b.Offset())
}
