package odometry

import (
	"math"

	"github.com/viam-labs/arcodom/components/trackingwheel"
	"github.com/viam-labs/arcodom/spatialmath"
)

// integrateStep returns pose advanced by one tick that turned by deltaTheta. Each wheel's travel
// is treated as an arc about a shared center; the chord of that arc, averaged over the wheels of
// an axis, is the local displacement, which is rotated into the global frame at the midpoint
// heading.
func (e *Engine) integrateStep(pose spatialmath.Pose, deltaTheta float64) spatialmath.Pose {
	horizontals := e.sensors.Horizontals
	verticals := e.sensors.Verticals

	avgHeading := pose.Theta + deltaTheta/2

	// With no turn the radius below is the travelled distance itself, so a chord factor of 1
	// makes the displacement a straight line.
	sinTerm := 1.0
	if deltaTheta != 0 {
		sinTerm = 2 * math.Sin(deltaTheta/2)
	}

	local := spatialmath.Pose{Theta: deltaTheta}
	for _, w := range horizontals {
		local.X += sinTerm * e.arcRadius(w, deltaTheta) / float64(len(horizontals))
	}

	// no vertical wheels leaves local.Y at 0; Calibrate warns about it
	forwardDivisor := float64(len(verticals))
	if e.opts.LegacyForwardDivisor {
		forwardDivisor = float64(len(horizontals))
	}
	for _, w := range verticals {
		local.Y += sinTerm * e.arcRadius(w, deltaTheta) / forwardDivisor
	}

	return pose.Add(local.Rotate(avgHeading))
}

// arcRadius returns the radius of the arc the wheel's pending travel implies, or the straight
// distance when there was no turn.
func (e *Engine) arcRadius(w trackingwheel.TrackingWheel, deltaTheta float64) float64 {
	d := e.pending.travel[w]
	if deltaTheta == 0 {
		return d
	}
	return d/deltaTheta + w.Offset()
}
