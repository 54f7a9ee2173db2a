// Package gyro defines the heading sensors odometry consumes. A Gyro may be shared with other
// subsystems; callers that trigger calibration from several places must synchronize themselves.
package gyro

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/viam-labs/arcodom/logging"
	"github.com/viam-labs/arcodom/utils"
)

// A Gyro reports heading change.
type Gyro interface {
	// Name identifies the gyro (usually its port) in diagnostics.
	Name() string

	// RotationDelta returns the heading change in radians since the previous call,
	// counter-clockwise positive.
	RotationDelta(ctx context.Context) (float64, error)

	// Calibrate starts calibration. It may return before calibration completes.
	Calibrate(ctx context.Context) error
	IsCalibrating() bool
	IsCalibrated() bool
}

// A HeadingSource reports an absolute compass heading in degrees, clockwise from north. Movement
// sensors such as IMUs and compasses satisfy it.
type HeadingSource interface {
	CompassHeading(ctx context.Context, extra map[string]interface{}) (float64, error)
}

// ErrNotCalibrated is returned when reading a gyro that has not been calibrated.
var ErrNotCalibrated = errors.New("gyro is not calibrated")

// FromDependencies returns the named gyro. A dependency that only reports compass heading is
// wrapped with NewHeadingGyro.
func FromDependencies(deps map[string]interface{}, name string, logger logging.Logger) (Gyro, error) {
	res, ok := deps[name]
	if !ok {
		return nil, utils.DependencyNotFoundError(name)
	}
	switch actual := res.(type) {
	case Gyro:
		return actual, nil
	case HeadingSource:
		return NewHeadingGyro(name, actual, logger), nil
	default:
		return nil, errors.Errorf("dependency %q should be a gyro or heading source but is %T", name, res)
	}
}

type headingGyro struct {
	name   string
	src    HeadingSource
	logger logging.Logger

	mu          sync.Mutex
	calibrated  bool
	lastHeading float64
}

// NewHeadingGyro adapts a compass heading source into a Gyro. Calibration captures the reference
// heading; each RotationDelta is the shortest turn from the previous reading.
func NewHeadingGyro(name string, src HeadingSource, logger logging.Logger) Gyro {
	return &headingGyro{name: name, src: src, logger: logger}
}

func (g *headingGyro) Name() string {
	return g.name
}

func (g *headingGyro) Calibrate(ctx context.Context) error {
	heading, err := g.src.CompassHeading(ctx, nil)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.calibrated = false
		return errors.Wrapf(err, "calibrating gyro %q", g.name)
	}
	g.lastHeading = heading
	g.calibrated = true
	g.logger.Debugw("gyro calibrated", "name", g.name, "heading_deg", heading)
	return nil
}

// IsCalibrating is always false: calibration is a single read.
func (g *headingGyro) IsCalibrating() bool {
	return false
}

func (g *headingGyro) IsCalibrated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calibrated
}

func (g *headingGyro) RotationDelta(ctx context.Context) (float64, error) {
	if !g.IsCalibrated() {
		return 0, errors.Wrapf(ErrNotCalibrated, "gyro %q", g.name)
	}
	heading, err := g.src.CompassHeading(ctx, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "reading gyro %q", g.name)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	clockwise := utils.SignedAngleDiffDeg(g.lastHeading, heading)
	g.lastHeading = heading
	return -utils.DegToRad(clockwise), nil
}
