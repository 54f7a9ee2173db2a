// Package spatialmath defines the planar pose used by odometry.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Pose is a planar position and heading. Theta is in radians, counter-clockwise positive, and is
// never wrapped; callers that need a bounded angle normalize it themselves.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewPose returns a pose at (x, y) with the given heading.
func NewPose(x, y, theta float64) Pose {
	return Pose{X: x, Y: y, Theta: theta}
}

// NewZeroPose returns the origin with zero heading.
func NewZeroPose() Pose {
	return Pose{}
}

// Point returns the position component of the pose.
func (p Pose) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// Add sums the two poses component-wise, headings included.
func (p Pose) Add(o Pose) Pose {
	pt := p.Point().Add(o.Point())
	return Pose{X: pt.X, Y: pt.Y, Theta: p.Theta + o.Theta}
}

// Sub returns p minus o component-wise.
func (p Pose) Sub(o Pose) Pose {
	pt := p.Point().Sub(o.Point())
	return Pose{X: pt.X, Y: pt.Y, Theta: p.Theta - o.Theta}
}

// Rotate rotates the (X, Y) vector counter-clockwise by angle radians. Theta is left untouched.
func (p Pose) Rotate(angle float64) Pose {
	sin, cos := math.Sincos(angle)
	return Pose{
		X:     p.X*cos - p.Y*sin,
		Y:     p.X*sin + p.Y*cos,
		Theta: p.Theta,
	}
}

// Distance is the euclidean distance between the positions of two poses.
func (p Pose) Distance(o Pose) float64 {
	return p.Point().Sub(o.Point()).Norm()
}

// AlmostEqual reports whether every component of the two poses is within epsilon.
func (p Pose) AlmostEqual(o Pose, epsilon float64) bool {
	return math.Abs(p.X-o.X) <= epsilon &&
		math.Abs(p.Y-o.Y) <= epsilon &&
		math.Abs(p.Theta-o.Theta) <= epsilon
}

func (p Pose) String() string {
	return fmt.Sprintf("(x: %.4f, y: %.4f, theta: %.4f rad)", p.X, p.Y, p.Theta)
}
