// Package sim simulates a robot rolling tracking wheels over the floor so odometry can be
// checked against the pose the robot really has.
package sim

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"

	fakeencoder "github.com/viam-labs/arcodom/components/encoder/fake"
	fakegyro "github.com/viam-labs/arcodom/components/gyro/fake"
	"github.com/viam-labs/arcodom/components/trackingwheel"
	"github.com/viam-labs/arcodom/odometry"
	"github.com/viam-labs/arcodom/spatialmath"
)

// Axis is the direction a tracking wheel rolls in.
type Axis string

// Supported axes.
const (
	Vertical   Axis = "vertical"
	Horizontal Axis = "horizontal"
)

type wheel struct {
	axis        Axis
	offset      float64
	distPerTick float64
	enc         *fakeencoder.Encoder
}

// Robot is a ground truth robot that moves without slipping sideways. Vertical wheel offsets
// are lateral, positive to the right; horizontal wheel offsets are along the direction of
// travel, positive forward.
type Robot struct {
	mu     sync.Mutex
	truth  spatialmath.Pose
	wheels []*wheel
	gyros  []*fakegyro.Gyro
	deps   map[string]interface{}
}

// NewRobot returns a robot standing at start.
func NewRobot(start spatialmath.Pose) *Robot {
	return &Robot{truth: start, deps: map[string]interface{}{}}
}

// AddWheel mounts a tracking wheel and registers its encoder under cfg.Encoder.
func (r *Robot) AddWheel(axis Axis, cfg trackingwheel.Config) (*fakeencoder.Encoder, error) {
	if _, err := cfg.Validate(cfg.Name); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deps[cfg.Encoder]; ok {
		return nil, errors.Errorf("dependency %q already registered", cfg.Encoder)
	}
	enc := fakeencoder.NewEncoder(0)
	r.wheels = append(r.wheels, &wheel{
		axis:        axis,
		offset:      cfg.OffsetMM,
		distPerTick: cfg.DistancePerTick(),
		enc:         enc,
	})
	r.deps[cfg.Encoder] = enc
	return enc, nil
}

// AddGyro mounts g and registers it under its name.
func (r *Robot) AddGyro(g *fakegyro.Gyro) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deps[g.Name()]; ok {
		return errors.Errorf("dependency %q already registered", g.Name())
	}
	r.gyros = append(r.gyros, g)
	r.deps[g.Name()] = g
	return nil
}

// Dependencies returns the simulated encoders and gyros by name.
func (r *Robot) Dependencies() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	deps := make(map[string]interface{}, len(r.deps))
	for k, v := range r.deps {
		deps[k] = v
	}
	return deps
}

// Pose returns where the robot really is.
func (r *Robot) Pose() spatialmath.Pose {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.truth
}

// Drive moves the robot for dt at velocity (mm/s along its heading) while turning at
// angularVelocity (rad/s, counter-clockwise positive). The path is an exact circular arc.
func (r *Robot) Drive(velocity, angularVelocity float64, dt time.Duration) {
	ds := velocity * dt.Seconds()
	dTheta := angularVelocity * dt.Seconds()

	chord := ds
	if dTheta != 0 {
		chord = 2 * (ds / dTheta) * math.Sin(dTheta/2)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	step := spatialmath.Pose{Y: chord}.Rotate(r.truth.Theta + dTheta/2)
	step.Theta = dTheta
	r.truth = r.truth.Add(step)

	for _, w := range r.wheels {
		var travel float64
		switch w.axis {
		case Vertical:
			travel = ds + w.offset*dTheta
		case Horizontal:
			travel = -w.offset * dTheta
		}
		w.enc.AddTicks(travel / w.distPerTick)
	}
	for _, g := range r.gyros {
		g.Rotate(dTheta)
	}
}

// DifferentialLayout describes the usual three wheel layout: a vertical wheel either side of
// center and a horizontal wheel on the center line.
type DifferentialLayout struct {
	TrackWidthMM     float64
	WheelDiameterMM  float64
	TicksPerRotation float64
	Gyros            []string
}

// NewDifferentialRobot mounts layout on a new robot at start and returns it along with the
// odometry config that reads it.
func NewDifferentialRobot(start spatialmath.Pose, layout DifferentialLayout) (*Robot, odometry.Config, error) {
	r := NewRobot(start)
	wheelCfg := func(name string, offset float64) trackingwheel.Config {
		return trackingwheel.Config{
			Name:             name,
			Encoder:          name + "-encoder",
			OffsetMM:         offset,
			WheelDiameterMM:  layout.WheelDiameterMM,
			TicksPerRotation: layout.TicksPerRotation,
		}
	}

	cfg := odometry.Config{
		VerticalWheels: []trackingwheel.Config{
			wheelCfg("left", -layout.TrackWidthMM/2),
			wheelCfg("right", layout.TrackWidthMM/2),
		},
		HorizontalWheels: []trackingwheel.Config{wheelCfg("center", 0)},
		Gyros:            layout.Gyros,
		InitialPose:      &start,
	}
	for _, wc := range cfg.VerticalWheels {
		if _, err := r.AddWheel(Vertical, wc); err != nil {
			return nil, odometry.Config{}, err
		}
	}
	for _, wc := range cfg.HorizontalWheels {
		if _, err := r.AddWheel(Horizontal, wc); err != nil {
			return nil, odometry.Config{}, err
		}
	}
	for _, name := range layout.Gyros {
		if err := r.AddGyro(fakegyro.NewCalibratedGyro(name)); err != nil {
			return nil, odometry.Config{}, err
		}
	}
	return r, cfg, nil
}
